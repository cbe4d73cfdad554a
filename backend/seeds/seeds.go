package seeds

import (
	"log"

	"tunilearn/backend/models"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var subjectNames = []string{"Mathematics", "Science", "Literature"}

var users = []models.User{
	{Name: "Platform Admin", Email: "admin@tunilearn.com", Role: models.RoleAdmin, ProfileCompleted: true},
	{Name: "Demo Teacher", Email: "teacher@tunilearn.com", Role: models.RoleTeacher, ProfileCompleted: true},
	{Name: "Demo Student", Email: "student@tunilearn.com", Role: models.RoleStudent, ProfileCompleted: true},
}

// Run inserts the starter subjects and accounts. Rows that already exist are left alone.
func Run(db *gorm.DB, logger *log.Logger) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, name := range subjectNames {
			subject := models.Subject{Name: name, Slug: slug.Make(name)}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&subject)
			if res.Error != nil {
				return errors.Wrapf(res.Error, "seed subject %s", name)
			}
			if res.RowsAffected > 0 {
				logger.Printf("seeded subject %s", name)
			}
		}

		for _, u := range users {
			user := u
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user)
			if res.Error != nil {
				return errors.Wrapf(res.Error, "seed user %s", u.Email)
			}
			if res.RowsAffected > 0 {
				logger.Printf("seeded %s user %s", user.Role, user.Email)
			}
		}
		return nil
	})
}

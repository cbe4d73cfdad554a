package services

import (
	"tunilearn/backend/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type PlatformStats struct {
	Users           int64 `json:"users"`
	Teachers        int64 `json:"teachers"`
	Students        int64 `json:"students"`
	Subjects        int64 `json:"subjects"`
	Courses         int64 `json:"courses"`
	ApprovedCourses int64 `json:"approvedCourses"`
	PendingCourses  int64 `json:"pendingCourses"`
	Enrollments     int64 `json:"enrollments"`
}

type AdminDashboard struct {
	Stats          PlatformStats   `json:"stats"`
	PendingCourses []models.Course `json:"pendingCourses"`
}

type CourseStats struct {
	models.Course
	EnrollmentCount int64 `json:"enrollmentCount"`
}

type TeacherDashboard struct {
	Courses          []CourseStats `json:"courses"`
	TotalCourses     int           `json:"totalCourses"`
	ApprovedCourses  int           `json:"approvedCourses"`
	PendingCourses   int           `json:"pendingCourses"`
	TotalEnrollments int64         `json:"totalEnrollments"`
}

type StudentDashboard struct {
	Enrollments []models.Enrollment `json:"enrollments"`
	Total       int                 `json:"total"`
}

type DashboardService struct {
	DB          *gorm.DB
	Enrollments *EnrollmentService
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{DB: db, Enrollments: NewEnrollmentService(db)}
}

func (s *DashboardService) count(model interface{}, where string, args ...interface{}) (int64, error) {
	var n int64
	query := s.DB.Model(model)
	if where != "" {
		query = query.Where(where, args...)
	}
	if err := query.Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "count")
	}
	return n, nil
}

func (s *DashboardService) Admin() (*AdminDashboard, error) {
	var stats PlatformStats
	counters := []struct {
		dst   *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&stats.Users, &models.User{}, "", nil},
		{&stats.Teachers, &models.User{}, "role = ?", []interface{}{models.RoleTeacher}},
		{&stats.Students, &models.User{}, "role = ?", []interface{}{models.RoleStudent}},
		{&stats.Subjects, &models.Subject{}, "", nil},
		{&stats.Courses, &models.Course{}, "", nil},
		{&stats.ApprovedCourses, &models.Course{}, "approved = ?", []interface{}{true}},
		{&stats.PendingCourses, &models.Course{}, "approved = ?", []interface{}{false}},
		{&stats.Enrollments, &models.Enrollment{}, "", nil},
	}
	for _, c := range counters {
		n, err := s.count(c.model, c.where, c.args...)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	var pending []models.Course
	err := s.DB.Where("approved = ?", false).
		Preload("Teacher").
		Preload("Subject").
		Order("created_at ASC, id ASC").
		Find(&pending).Error
	if err != nil {
		return nil, errors.Wrap(err, "list pending courses")
	}
	return &AdminDashboard{Stats: stats, PendingCourses: pending}, nil
}

func (s *DashboardService) Teacher(teacherID uint) (*TeacherDashboard, error) {
	var courses []models.Course
	err := s.DB.Where("teacher_id = ?", teacherID).
		Preload("Subject").
		Order("created_at DESC, id DESC").
		Find(&courses).Error
	if err != nil {
		return nil, errors.Wrap(err, "list teacher courses")
	}

	counts := map[uint]int64{}
	if len(courses) > 0 {
		ids := make([]uint, 0, len(courses))
		for _, c := range courses {
			ids = append(ids, c.ID)
		}
		var rows []struct {
			CourseID uint
			Total    int64
		}
		err := s.DB.Model(&models.Enrollment{}).
			Select("course_id, COUNT(*) AS total").
			Where("course_id IN ?", ids).
			Group("course_id").
			Scan(&rows).Error
		if err != nil {
			return nil, errors.Wrap(err, "count enrollments")
		}
		for _, r := range rows {
			counts[r.CourseID] = r.Total
		}
	}

	dash := &TeacherDashboard{Courses: make([]CourseStats, 0, len(courses)), TotalCourses: len(courses)}
	for _, c := range courses {
		if c.Approved {
			dash.ApprovedCourses++
		} else {
			dash.PendingCourses++
		}
		dash.TotalEnrollments += counts[c.ID]
		dash.Courses = append(dash.Courses, CourseStats{Course: c, EnrollmentCount: counts[c.ID]})
	}
	return dash, nil
}

func (s *DashboardService) Student(studentID uint) (*StudentDashboard, error) {
	enrollments, err := s.Enrollments.GetStudentEnrollments(studentID)
	if err != nil {
		return nil, err
	}
	return &StudentDashboard{Enrollments: enrollments, Total: len(enrollments)}, nil
}

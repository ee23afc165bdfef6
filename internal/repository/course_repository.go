package repository

import (
	"time"

	"mooc_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return r.DB.Select("Lessons", "Announcements").Delete(&model.Course{BaseModel: model.BaseModel{ID: id}}).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	return &course, err
}

func (r *CourseRepository) FindBySlug(slug string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("slug = ?", slug).First(&course).Error
	return &course, err
}

// Search 按名称或简介做大小写不敏感的子串匹配，空查询返回全部，按名称升序
func (r *CourseRepository) Search(query string) ([]model.Course, error) {
	var courses []model.Course
	db := r.DB.Model(&model.Course{})
	if query != "" {
		like := "%" + query + "%"
		db = db.Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", like, like)
	}
	err := db.Order("name ASC").Find(&courses).Error
	return courses, err
}

// ReleasedLessons 返回截止 asOf 已发布的课时（未设置发布日期视为已发布），按序号升序
func (r *CourseRepository) ReleasedLessons(courseID uint, asOf time.Time) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.Where("course_id = ?", courseID).
		Where("release_date IS NULL OR release_date <= ?", asOf).
		Order("number ASC").
		Find(&lessons).Error
	return lessons, err
}

func (r *CourseRepository) ListLessons(courseID uint) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.Where("course_id = ?", courseID).
		Order("number ASC").
		Find(&lessons).Error
	return lessons, err
}

func (r *CourseRepository) CreateLesson(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}

func (r *CourseRepository) UpdateLesson(lesson *model.Lesson) error {
	return r.DB.Save(lesson).Error
}

func (r *CourseRepository) DeleteLesson(id uint) error {
	return r.DB.Select("Materials").Delete(&model.Lesson{BaseModel: model.BaseModel{ID: id}}).Error
}

func (r *CourseRepository) FindLesson(courseID, lessonID uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.Preload("Materials").
		Where("course_id = ?", courseID).
		First(&lesson, lessonID).Error
	return &lesson, err
}

func (r *CourseRepository) CreateMaterial(material *model.Material) error {
	return r.DB.Create(material).Error
}

func (r *CourseRepository) FindMaterial(lessonID, materialID uint) (*model.Material, error) {
	var material model.Material
	err := r.DB.Where("lesson_id = ?", lessonID).First(&material, materialID).Error
	return &material, err
}

func (r *CourseRepository) ListMaterials(lessonID uint) ([]model.Material, error) {
	var materials []model.Material
	err := r.DB.Where("lesson_id = ?", lessonID).Find(&materials).Error
	return materials, err
}

func (r *CourseRepository) DeleteMaterial(id uint) error {
	return r.DB.Delete(&model.Material{}, id).Error
}

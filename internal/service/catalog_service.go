package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"mooc_backend/internal/config"
	"mooc_backend/internal/model"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/util"
	"mooc_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const courseCacheKeyPrefix = "course:slug:"

// CatalogService 课程目录：课程、课时、材料的查询和管理
type CatalogService struct {
	CourseRepo *repository.CourseRepository
	Storage    *StorageService
	Cfg        *config.Config
	Redis      *redis.Client
}

func NewCatalogService(courseRepo *repository.CourseRepository, storage *StorageService, cfg *config.Config, rdb *redis.Client) *CatalogService {
	return &CatalogService{
		CourseRepo: courseRepo,
		Storage:    storage,
		Cfg:        cfg,
		Redis:      rdb,
	}
}

// Search 子串搜索课程，空查询返回全部（按名称升序）
func (s *CatalogService) Search(query string) ([]model.Course, error) {
	return s.CourseRepo.Search(query)
}

// GetCourseBySlug 按短标识查询课程，结果进 Redis 缓存
func (s *CatalogService) GetCourseBySlug(ctx context.Context, slug string) (*model.Course, error) {
	cacheKey := courseCacheKeyPrefix + slug

	if s.Redis != nil {
		if val, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var course model.Course
			if err := json.Unmarshal([]byte(val), &course); err == nil {
				return &course, nil
			}
		}
	}

	course, err := s.CourseRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	if s.Redis != nil {
		if data, err := json.Marshal(course); err == nil {
			ttl := time.Duration(s.Cfg.CacheSettings().CourseTTLMinutes) * time.Minute
			if err := s.Redis.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
				logger.Log.Warn("课程缓存写入失败", zap.String("slug", slug), zap.Error(err))
			}
		}
	}

	return course, nil
}

// ReleasedLessons 截止 asOf 已发布的课时，按序号升序，无副作用
func (s *CatalogService) ReleasedLessons(courseID uint, asOf time.Time) ([]model.Lesson, error) {
	return s.CourseRepo.ReleasedLessons(courseID, asOf)
}

// GetLesson 获取课时详情（含材料）。未到发布日期时普通学生不可见，
// 教师和管理员不受限制。
func (s *CatalogService) GetLesson(courseID, lessonID uint, role model.UserRole, asOf time.Time) (*model.Lesson, error) {
	lesson, err := s.CourseRepo.FindLesson(courseID, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	if role == model.Student && !lesson.IsAvailable(asOf) {
		return nil, util.ErrLessonNotAvailable
	}

	return lesson, nil
}

func (s *CatalogService) CreateCourse(course *model.Course) error {
	if !util.ValidSlug(course.Slug) {
		return util.ErrInvalidSlug
	}

	if err := s.CourseRepo.Create(course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return util.ErrSlugTaken
		}
		return err
	}
	return nil
}

func (s *CatalogService) UpdateCourse(ctx context.Context, course *model.Course) error {
	if !util.ValidSlug(course.Slug) {
		return util.ErrInvalidSlug
	}

	if err := s.CourseRepo.Update(course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return util.ErrSlugTaken
		}
		return err
	}

	s.invalidateCourse(ctx, course.Slug)
	return nil
}

func (s *CatalogService) DeleteCourse(ctx context.Context, id uint) error {
	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCourseNotFound
		}
		return err
	}

	if err := s.CourseRepo.Delete(id); err != nil {
		return err
	}

	s.invalidateCourse(ctx, course.Slug)
	return nil
}

// UploadCourseImage 上传课程封面并更新记录
func (s *CatalogService) UploadCourseImage(ctx context.Context, courseID uint, filename string, reader io.Reader, size int64, contentType string) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	key := fmt.Sprintf("courses/images/%d/%s", courseID, filename)
	if _, err := s.Storage.Upload(ctx, key, reader, size, contentType); err != nil {
		return nil, err
	}

	course.Image = key
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}

	s.invalidateCourse(ctx, course.Slug)
	return course, nil
}

func (s *CatalogService) CreateLesson(ctx context.Context, lesson *model.Lesson) error {
	course, err := s.CourseRepo.FindByID(lesson.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCourseNotFound
		}
		return err
	}

	if err := s.CourseRepo.CreateLesson(lesson); err != nil {
		return err
	}
	s.invalidateCourse(ctx, course.Slug)
	return nil
}

func (s *CatalogService) UpdateLesson(ctx context.Context, lesson *model.Lesson) error {
	if err := s.CourseRepo.UpdateLesson(lesson); err != nil {
		return err
	}
	if course, err := s.CourseRepo.FindByID(lesson.CourseID); err == nil {
		s.invalidateCourse(ctx, course.Slug)
	}
	return nil
}

func (s *CatalogService) DeleteLesson(ctx context.Context, courseID, lessonID uint) error {
	if _, err := s.CourseRepo.FindLesson(courseID, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrLessonNotFound
		}
		return err
	}

	if err := s.CourseRepo.DeleteLesson(lessonID); err != nil {
		return err
	}
	if course, err := s.CourseRepo.FindByID(courseID); err == nil {
		s.invalidateCourse(ctx, course.Slug)
	}
	return nil
}

// AddMaterial 为课时添加材料，file 与 embedMedia 二选一
func (s *CatalogService) AddMaterial(courseID uint, material *model.Material) error {
	if _, err := s.CourseRepo.FindLesson(courseID, material.LessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrLessonNotFound
		}
		return err
	}
	return s.CourseRepo.CreateMaterial(material)
}

// UploadMaterialFile 上传材料文件并登记材料记录
func (s *CatalogService) UploadMaterialFile(ctx context.Context, courseID, lessonID uint, name, filename string, reader io.Reader, size int64, contentType string) (*model.Material, error) {
	if _, err := s.CourseRepo.FindLesson(courseID, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	key := fmt.Sprintf("lessons/materials/%d/%s", lessonID, filename)
	if _, err := s.Storage.Upload(ctx, key, reader, size, contentType); err != nil {
		return nil, err
	}

	material := &model.Material{
		LessonID: lessonID,
		Name:     name,
		File:     key,
	}
	if err := s.CourseRepo.CreateMaterial(material); err != nil {
		return nil, err
	}
	return material, nil
}

func (s *CatalogService) DeleteMaterial(lessonID, materialID uint) error {
	if _, err := s.CourseRepo.FindMaterial(lessonID, materialID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrMaterialNotFound
		}
		return err
	}
	return s.CourseRepo.DeleteMaterial(materialID)
}

func (s *CatalogService) invalidateCourse(ctx context.Context, slug string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, courseCacheKeyPrefix+slug).Err(); err != nil {
		logger.Log.Warn("课程缓存失效失败", zap.String("slug", slug), zap.Error(err))
	}
}

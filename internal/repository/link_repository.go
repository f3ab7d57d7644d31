package repository

import (
	"errors"

	"gorm.io/gorm"

	"linktrack/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// LinkRepository 追踪链接仓库接口
type LinkRepository interface {
	FindByID(id uint) (*model.Link, error)
	FindByShortCode(code string) (*model.Link, error)
	Create(link *model.Link) error
	Update(link *model.Link) error
	// 计数器更新，点击路径上调用，失败不影响响应
	IncrTotalClicks(id uint) error
	IncrRealVisitors(id uint) error
	IncrBlockedAttempts(id uint) error
	// DistinctUserIDs 所有拥有链接的用户，供汇总任务遍历
	DistinctUserIDs() ([]uint, error)
}

// GormLinkRepository 基于GORM的追踪链接仓库实现
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository 创建追踪链接仓库
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &GormLinkRepository{db: db}
}

// FindByID 根据ID查找链接
func (r *GormLinkRepository) FindByID(id uint) (*model.Link, error) {
	var link model.Link
	result := r.db.First(&link, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &link, nil
}

// FindByShortCode 根据短码查找链接
func (r *GormLinkRepository) FindByShortCode(code string) (*model.Link, error) {
	var link model.Link
	result := r.db.Where("short_code = ?", code).First(&link)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &link, nil
}

// Create 创建链接
func (r *GormLinkRepository) Create(link *model.Link) error {
	return r.db.Create(link).Error
}

// Update 更新链接
func (r *GormLinkRepository) Update(link *model.Link) error {
	return r.db.Save(link).Error
}

// IncrTotalClicks 总点击数+1
func (r *GormLinkRepository) IncrTotalClicks(id uint) error {
	return r.incr(id, "total_clicks")
}

// IncrRealVisitors 真实访客数+1
func (r *GormLinkRepository) IncrRealVisitors(id uint) error {
	return r.incr(id, "real_visitors")
}

// IncrBlockedAttempts 拦截次数+1
func (r *GormLinkRepository) IncrBlockedAttempts(id uint) error {
	return r.incr(id, "blocked_attempts")
}

// DistinctUserIDs 返回所有拥有链接的用户ID
func (r *GormLinkRepository) DistinctUserIDs() ([]uint, error) {
	var userIDs []uint
	result := r.db.Model(&model.Link{}).Distinct("user_id").Pluck("user_id", &userIDs)
	if result.Error != nil {
		return nil, result.Error
	}
	return userIDs, nil
}

func (r *GormLinkRepository) incr(id uint, column string) error {
	return r.db.Model(&model.Link{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

package repository

import (
	"context"

	"wellcoach_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

// CreateIfAbsent 依赖 (user_id, module_id) 唯一索引，已存在时不插入并返回 false
func (r *CertificateRepository) CreateIfAbsent(ctx context.Context, cert *model.ModuleCertificate) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(cert)
	return res.RowsAffected == 1, res.Error
}

func (r *CertificateRepository) FindByUserAndModule(ctx context.Context, userID, moduleID string) (*model.ModuleCertificate, error) {
	var cert model.ModuleCertificate
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) FindByID(ctx context.Context, id string) (*model.ModuleCertificate, error) {
	var cert model.ModuleCertificate
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) FindByNumber(ctx context.Context, number string) (*model.ModuleCertificate, error) {
	var cert model.ModuleCertificate
	if err := r.DB.WithContext(ctx).Where("certificate_number = ?", number).First(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) FindByUser(ctx context.Context, userID string) ([]model.ModuleCertificate, error) {
	var list []model.ModuleCertificate
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&list).Error
	return list, err
}

func (r *CertificateRepository) UpdateFileURL(ctx context.Context, id, fileURL string) error {
	return r.DB.WithContext(ctx).
		Model(&model.ModuleCertificate{}).
		Where("id = ?", id).
		Update("file_url", fileURL).Error
}

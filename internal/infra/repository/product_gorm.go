package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 公開商品のみを、検索/カテゴリ/価格帯/ソート/ページング付きで返す。
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{}).Where("is_active = ?", true)

	if strings.TrimSpace(q.Q) != "" {
		tx = tx.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(q.Q))
	}
	if strings.TrimSpace(q.Category) != "" {
		tx = tx.Where("LOWER(category) = ?", strings.ToLower(strings.TrimSpace(q.Category)))
	}

	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	switch q.Sort {
	case "price_asc":
		tx = tx.Order("price asc").Order("id asc")
	case "price_desc":
		tx = tx.Order("price desc").Order("id desc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// 管理画面用。非公開も含む（削除済みは除く）
func (r *ProductGormRepository) ListAdmin(ctx context.Context, f repo.AdminProductFilter) ([]model.Product, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })

	if strings.TrimSpace(f.Name) != "" {
		tx = tx.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(f.Name))
	}
	if strings.TrimSpace(f.Category) != "" {
		tx = tx.Where("LOWER(category) = ?", strings.ToLower(strings.TrimSpace(f.Category)))
	}
	if f.MaxPrice != nil {
		tx = tx.Where("price <= ?", *f.MaxPrice)
	}

	// 表示ステータスと同じ優先順位（在庫0が先）
	switch f.Status {
	case "out_of_stock":
		tx = tx.Where("stock <= 0")
	case "available":
		tx = tx.Where("stock > 0 AND is_active = ?", true)
	case "unavailable":
		tx = tx.Where("stock > 0 AND is_active = ?", false)
	}

	var products []model.Product
	err := tx.Order("id asc").
		Limit(clampLimit(f.Limit, 100, 500)).
		Offset(f.Offset).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return model.Product{}, translate(err)
	}
	return p, nil
}

func (r *ProductGormRepository) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err != nil {
		return model.Product{}, translate(err)
	}
	return p, nil
}

// 商品の作成（画像も一緒に）
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の更新（画像は触らない）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"price":       p.Price,
		"stock":       p.Stock,
		"is_active":   p.IsActive,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除（論理削除）
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) AddImage(ctx context.Context, img model.ProductImage) (model.ProductImage, error) {
	if err := r.db.WithContext(ctx).Create(&img).Error; err != nil {
		return model.ProductImage{}, err
	}
	return img, nil
}

func (r *ProductGormRepository) ListImages(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	var imgs []model.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id asc").
		Find(&imgs).Error
	if err != nil {
		return nil, err
	}
	return imgs, nil
}

func (r *ProductGormRepository) FindImage(ctx context.Context, productID int64, imageID int64) (model.ProductImage, error) {
	var img model.ProductImage
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", imageID, productID).
		First(&img).Error
	if err != nil {
		return model.ProductImage{}, translate(err)
	}
	return img, nil
}

func (r *ProductGormRepository) DeleteImage(ctx context.Context, productID int64, imageID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", imageID, productID).
		Delete(&model.ProductImage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除時に画像は物理削除する
func (r *ProductGormRepository) DeleteImagesByProductID(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&model.ProductImage{}).Error
}

func (r *ProductGormRepository) Stats(ctx context.Context) (repo.ProductStats, error) {
	var s repo.ProductStats
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("is_active = ? AND stock > 0", true).
		Count(&s.Active).Error; err != nil {
		return repo.ProductStats{}, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("stock <= 0").
		Count(&s.OutOfStock).Error; err != nil {
		return repo.ProductStats{}, err
	}
	return s, nil
}

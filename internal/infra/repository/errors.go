package repository

import (
	"errors"
	"strings"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

// gormのエラーをrepositoryのエラーにそろえる
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrDuplicate
	}
	//TranslateErrorが効かないドライバ向け
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return repo.ErrDuplicate
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// 部分一致用。%と_は文字として扱う（LIKE ... ESCAPE '\'と組み合わせる）
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

func clampLimit(limit int, def int, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

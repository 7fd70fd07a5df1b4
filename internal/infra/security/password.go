package security

import "golang.org/x/crypto/bcrypt"

// パスワードは必ずハッシュ化して保存（平文保存しない）
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// hashが空（OAuthのみのユーザー）は常に不一致
func CheckPassword(hash string, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Command seed wipes the campground tables and fills them with sample data
// for local development. Run it after the server has applied migrations.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/yamacamp/backend/internal/config"
	"github.com/yamacamp/backend/internal/logger"
	"github.com/yamacamp/backend/internal/models"
	"github.com/yamacamp/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const campgroundCount = 50

var descriptors = []string{
	"森の", "山あいの", "静かな", "川沿いの", "星空の",
	"霧の", "湖畔の", "夕焼けの", "渓谷の", "海辺の",
}

var places = []string{
	"キャンプ場", "野営地", "キャンプビレッジ", "オートキャンプ場", "ベースキャンプ",
	"キャンプフィールド", "グランピング", "テントサイト", "リバーサイド", "バックカントリー",
}

var cities = []struct {
	name      string
	latitude  float64
	longitude float64
}{
	{"北海道ニセコ町", 42.8048, 140.6874},
	{"長野県白馬村", 36.6981, 137.8620},
	{"山梨県富士河口湖町", 35.5171, 138.7550},
	{"静岡県伊豆市", 34.9766, 138.9468},
	{"栃木県日光市", 36.7198, 139.6982},
	{"岐阜県高山市", 36.1461, 137.2522},
	{"和歌山県白浜町", 33.6789, 135.3480},
	{"熊本県阿蘇市", 32.9525, 131.1210},
	{"鹿児島県屋久島町", 30.3581, 130.5297},
	{"沖縄県国頭村", 26.7459, 128.1787},
}

var stockImages = []models.Image{
	{URL: "https://res.cloudinary.com/yamacamp/image/upload/seed/forest.jpg", Filename: "seed/forest.jpg"},
	{URL: "https://res.cloudinary.com/yamacamp/image/upload/seed/river.jpg", Filename: "seed/river.jpg"},
}

const sampleDescription = "山々に囲まれた自然豊かなキャンプ場です。" +
	"川のせせらぎを聞きながら、のんびりとした時間を過ごせます。" +
	"初心者からベテランまで楽しめる設備が揃っています。"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Logger.Fatal("Failed to ping database", zap.Error(err))
	}

	ctx := context.Background()

	if err := wipe(ctx, db); err != nil {
		logger.Logger.Fatal("Failed to wipe tables", zap.Error(err))
	}

	userRepo := repositories.NewUserRepository(db, logger.Logger)
	campgroundRepo := repositories.NewCampgroundRepository(db, logger.Logger)

	author, err := seedUser(ctx, userRepo)
	if err != nil {
		logger.Logger.Fatal("Failed to create seed user", zap.Error(err))
	}

	for i := 0; i < campgroundCount; i++ {
		city := cities[rand.Intn(len(cities))]
		campground := &models.Campground{
			Title:       descriptors[rand.Intn(len(descriptors))] + places[rand.Intn(len(places))],
			Price:       float64(2000 + rand.Intn(2000)),
			Description: sampleDescription,
			Location:    city.name,
			Latitude:    city.latitude,
			Longitude:   city.longitude,
			AuthorID:    author.ID,
			Images:      stockImages,
		}
		if err := campgroundRepo.Create(ctx, campground); err != nil {
			logger.Logger.Fatal("Failed to insert campground", zap.Error(err))
		}
	}

	logger.Logger.Info("Seed complete",
		zap.Int("campgrounds", campgroundCount),
		zap.String("user", author.Username))
}

// wipe clears campground data; child tables go first
func wipe(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{"reviews", "campground_images", "campgrounds"} {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("failed to wipe %s: %w", table, err)
		}
	}
	return nil
}

// seedUser returns the development user, creating it on first run
func seedUser(ctx context.Context, repo interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmailOrUsername(ctx context.Context, login string) (*models.User, error)
}) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Yamacamp1"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        "camper@example.com",
		Username:     "camper",
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return repo.GetByEmailOrUsername(ctx, user.Username)
		}
		return nil, err
	}
	return user, nil
}

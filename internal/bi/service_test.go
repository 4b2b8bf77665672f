package bi

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/lucashml/medscribe/internal/consultation"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&consultation.BIRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seed(t *testing.T, db *gorm.DB, cenario, cid, gravidade string, at time.Time) {
	t.Helper()
	rec := consultation.BIRecord{
		Iniciais:          "M.S.",
		Cenario:           cenario,
		CIDPrincipal:      cid,
		CIDDesc:           "desc " + cid,
		GravidadeEstimada: gravidade,
		Hora:              at.Hour(),
		DiaSemana:         at.Weekday().String(),
		Timestamp:         at,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestStats_Aggregates(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	seed(t, db, "PS", "I20.0", "Grave", base)
	seed(t, db, "PS", "J11", "Leve", base.Add(time.Hour))
	seed(t, db, "UPA", "I20.0", "Grave", base.Add(2*time.Hour))
	seed(t, db, "Consultório", "E11.9", "Moderada", base.Add(3*time.Hour))

	svc := NewService(db, nil)
	res, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if res.Stats.Total != 4 {
		t.Fatalf("total: got %d want 4", res.Stats.Total)
	}
	if res.Stats.Graves != 2 {
		t.Fatalf("graves: got %d want 2", res.Stats.Graves)
	}
	if res.Stats.Cenarios != 3 {
		t.Fatalf("cenarios: got %d want 3", res.Stats.Cenarios)
	}
	if res.Stats.CIDs != 3 {
		t.Fatalf("cids: got %d want 3", res.Stats.CIDs)
	}
	if len(res.Records) != 4 {
		t.Fatalf("records: got %d want 4", len(res.Records))
	}
	// Newest first.
	if res.Records[0].CIDPrincipal != "E11.9" {
		t.Fatalf("expected newest record first, got %+v", res.Records[0])
	}
}

func TestStats_EmptyTable(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, nil)

	res, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if res.Stats.Total != 0 || res.Stats.Graves != 0 {
		t.Fatalf("expected zero stats, got %+v", res.Stats)
	}
	if len(res.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(res.Records))
	}
}

func TestStats_RecentWindowCapped(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < recentLimit+25; i++ {
		seed(t, db, "PS", "J11", "Leve", base.Add(time.Duration(i)*time.Minute))
	}

	svc := NewService(db, nil)
	res, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if res.Stats.Total != int64(recentLimit+25) {
		t.Fatalf("total must count beyond the window, got %d", res.Stats.Total)
	}
	if len(res.Records) != recentLimit {
		t.Fatalf("records window: got %d want %d", len(res.Records), recentLimit)
	}
}

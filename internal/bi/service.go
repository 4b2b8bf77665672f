// Package bi is the aggregate read path over bi_records. Pure reads, no
// write side effects.
package bi

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/lucashml/medscribe/internal/consultation"
	"github.com/lucashml/medscribe/internal/store/redisstore"
	"gorm.io/gorm"
)

const recentLimit = 200

type Stats struct {
	Total    int64 `json:"total"`
	Graves   int64 `json:"graves"`
	Cenarios int64 `json:"cenarios"`
	CIDs     int64 `json:"cids"`
}

type StatsResult struct {
	Stats   Stats                   `json:"stats"`
	Records []consultation.BIRecord `json:"records"`
}

type Service struct {
	db    *gorm.DB
	cache *redisstore.Store // nil disables caching
}

func NewService(db *gorm.DB, cache *redisstore.Store) *Service {
	return &Service{db: db, cache: cache}
}

// Stats aggregates the BI records. Results are served from the redis
// cache for a short window when one is configured; any cache fault falls
// through to the database silently.
func (s *Service) Stats(ctx context.Context) (*StatsResult, error) {
	if s.cache != nil {
		if b, err := s.cache.GetBIStats(ctx); err == nil && len(b) > 0 {
			var cached StatsResult
			if err := json.Unmarshal(b, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	res, err := s.query(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := s.cache.SetBIStats(ctx, b, 30*time.Second); err != nil {
				log.Printf("[bi] stats cache write failed err=%v", err)
			}
		}
	}
	return res, nil
}

func (s *Service) query(ctx context.Context) (*StatsResult, error) {
	db := s.db.WithContext(ctx)

	var st Stats
	if err := db.Model(&consultation.BIRecord{}).Count(&st.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&consultation.BIRecord{}).
		Where("gravidade_estimada = ?", "Grave").
		Count(&st.Graves).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&consultation.BIRecord{}).
		Distinct("cenario").
		Count(&st.Cenarios).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&consultation.BIRecord{}).
		Distinct("cid_principal").
		Count(&st.CIDs).Error; err != nil {
		return nil, err
	}

	var records []consultation.BIRecord
	if err := db.Order("timestamp DESC").Limit(recentLimit).Find(&records).Error; err != nil {
		return nil, err
	}

	return &StatsResult{Stats: st, Records: records}, nil
}

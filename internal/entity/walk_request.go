package entity

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UpstreamWalkRequest は散歩リクエストサービスが返す散歩リクエスト。
// 犬はIDでのみ参照される。
type UpstreamWalkRequest struct {
	ID         string     `json:"id"`
	DogIDs     []string   `json:"dog_ids"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Distance   *float64   `json:"distance,omitempty"`
	CanceledAt *time.Time `json:"canceled_at,omitempty"`
	AcceptedBy *string    `json:"accepted_by,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// WalkRequest はdog_idsを解決済みの犬に置き換えた散歩リクエスト。
// 集約処理でのみ生成される。
type WalkRequest struct {
	ID         string     `json:"id"`
	Dogs       []Dog      `json:"dogs"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Distance   *float64   `json:"distance"`
	CanceledAt *time.Time `json:"canceled_at"`
	AcceptedBy *string    `json:"accepted_by"`
	AcceptedAt *time.Time `json:"accepted_at"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Status     string     `json:"status"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// NewWalkRequest は上流の散歩リクエストと解決済みの犬から散歩リクエストを組み立てる。
func NewWalkRequest(r UpstreamWalkRequest, dogs []Dog) WalkRequest {
	if dogs == nil {
		dogs = []Dog{}
	}
	return WalkRequest{
		ID:         r.ID,
		Dogs:       dogs,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Distance:   r.Distance,
		CanceledAt: r.CanceledAt,
		AcceptedBy: r.AcceptedBy,
		AcceptedAt: r.AcceptedAt,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// Nearby は位置と半径による絞り込み条件。
type Nearby struct {
	Latitude  float64
	Longitude float64
	Radius    float64
}

// WalkRequestQuery は散歩リクエストの検索条件。
type WalkRequestQuery struct {
	Nearby     *Nearby
	Pagination *Pagination
}

// Values はWalkRequestQueryをクエリパラメータに変換する。
// Nearbyとページ指定は展開して latitude, longitude, radius, page, size として送る。
func (q WalkRequestQuery) Values() url.Values {
	v := url.Values{}
	if q.Nearby != nil {
		v.Set("latitude", formatFloat(q.Nearby.Latitude))
		v.Set("longitude", formatFloat(q.Nearby.Longitude))
		v.Set("radius", formatFloat(q.Nearby.Radius))
	}
	q.Pagination.encode(v)
	return v
}

// setList はリスト値をカンマ区切りでクエリパラメータに追加する。空のリストは追加しない。
func setList(v url.Values, key string, values []string) {
	if len(values) > 0 {
		v.Set(key, strings.Join(values, ","))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

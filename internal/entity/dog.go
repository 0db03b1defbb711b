package entity

import (
	"net/url"
	"strconv"
	"time"
)

// Breed は犬種。
type Breed struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Dog は犬の登録情報。
type Dog struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Gender       string    `json:"gender"`
	Breed        Breed     `json:"breed"`
	Birthday     time.Time `json:"birthday"`
	IsSterilized bool      `json:"is_sterilized"`
	Introduction string    `json:"introduction"`
	OwnerID      string    `json:"owner_id"`
	Tags         []string  `json:"tags"`
	PortraitID   *string   `json:"portrait_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Pagination はページ指定。保存されないリクエスト修飾子。
type Pagination struct {
	Page int `json:"page" form:"page"`
	Size int `json:"size" form:"size"`
}

// encode はページ指定をクエリパラメータに追加する。
func (p *Pagination) encode(v url.Values) {
	if p == nil {
		return
	}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("size", strconv.Itoa(p.Size))
}

// DogQuery は犬の検索条件。
type DogQuery struct {
	// ID は犬IDの完全一致。
	ID string
	// IDIn は犬IDのいずれかに一致する条件。
	IDIn []string
	// OwnerID は飼い主IDの完全一致。
	OwnerID string
	// Pagination はページ指定。
	Pagination *Pagination
}

// Values はDogQueryをクエリパラメータに変換する。
// 未設定の条件は含めない。リスト値はカンマ区切りにする。
func (q DogQuery) Values() url.Values {
	v := url.Values{}
	if q.ID != "" {
		v.Set("id", q.ID)
	}
	setList(v, "id_in", q.IDIn)
	if q.OwnerID != "" {
		v.Set("owner_id", q.OwnerID)
	}
	q.Pagination.encode(v)
	return v
}

package domain

import "time"

// Channel - один источник дохода корпорации.
type Channel struct {
	Name    string  `json:"name"`
	MRR     float64 `json:"mrr"`
	Members int     `json:"members"`
	Target  float64 `json:"target,omitempty"`
}

// RevenueSnapshot - дневной срез суммарного MRR по каналам.
type RevenueSnapshot struct {
	Date     string             `json:"date"`
	TotalMRR float64            `json:"total_mrr"`
	Channels map[string]float64 `json:"channels"`
	Gap      float64            `json:"gap"`
}

// RevenueData - состояние трекера дохода, сериализуется целиком.
type RevenueData struct {
	TargetMRR float64            `json:"target_mrr"`
	Deadline  string             `json:"deadline"`
	Channels  map[string]Channel `json:"channels"`
	History   []RevenueSnapshot  `json:"history"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// TotalMRR суммирует MRR всех каналов.
func (d *RevenueData) TotalMRR() float64 {
	var total float64
	for _, ch := range d.Channels {
		total += ch.MRR
	}
	return total
}

// Gap возвращает остаток до цели, не меньше нуля.
func (d *RevenueData) Gap() float64 {
	gap := d.TargetMRR - d.TotalMRR()
	if gap < 0 {
		return 0
	}
	return gap
}

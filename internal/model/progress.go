package model

import "time"

// ProgressRecord は会員の体重・体脂肪・採寸の記録を表す。
type ProgressRecord struct {
	ID                string    `json:"id"`
	ClientID          string    `json:"client_id"`
	Weight            *float64  `json:"weight"`
	BodyFatPercentage *float64  `json:"body_fat_percentage"`
	MeasurementsChest *float64  `json:"measurements_chest"`
	MeasurementsWaist *float64  `json:"measurements_waist"`
	MeasurementsHips  *float64  `json:"measurements_hips"`
	Notes             string    `json:"notes"`
	RecordedAt        time.Time `json:"recorded_at"`
}

// ProgressInput は進捗記録の入力。client_idは呼び出し元の会員IDから決定するため含まない。
type ProgressInput struct {
	Weight            *float64
	BodyFatPercentage *float64
	MeasurementsChest *float64
	MeasurementsWaist *float64
	MeasurementsHips  *float64
	Notes             string
}

// ProgressPoint はグラフ表示用の1点。
type ProgressPoint struct {
	Date    string  `json:"date"`
	Weight  float64 `json:"weight"`
	BodyFat float64 `json:"body_fat"`
}

// BuildProgressChart は記録日時降順の記録を昇順のグラフ系列に変換する。
// NULLの値は0としてプロットする。
func BuildProgressChart(records []ProgressRecord) []ProgressPoint {
	points := make([]ProgressPoint, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		p := ProgressPoint{Date: r.RecordedAt.Format("2006-01-02")}
		if r.Weight != nil {
			p.Weight = *r.Weight
		}
		if r.BodyFatPercentage != nil {
			p.BodyFat = *r.BodyFatPercentage
		}
		points = append(points, p)
	}
	return points
}

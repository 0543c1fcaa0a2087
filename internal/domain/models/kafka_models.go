package models

import "time"

// TagBatchKafka - агрегированный результат одного цикла опроса тегов
// для отправки в Kafka.
type TagBatchKafka struct {
	Device    string     `json:"device"`
	SessionID string     `json:"session_id"`
	Timestamp time.Time  `json:"timestamp"`
	Tags      []TagValue `json:"tags"`
}

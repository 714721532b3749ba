package models

import "time"

type Report struct {
	ID          int               `json:"id" db:"id"`
	StudentID   string            `json:"student_id" db:"student_id"`
	StudentName string            `json:"student_name" db:"student_name"`
	Profile     map[string]string `json:"profile" db:"profile"`
	Content     string            `json:"content" db:"content"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}

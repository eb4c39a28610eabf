package entity

import "time"

type WebPage struct {
	URL        string
	StatusCode int
	Title      string
	Text       string
	Elapsed    time.Duration
}

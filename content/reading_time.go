package content

import (
	"fmt"
	"strings"
)

const wordsPerMinute = 200

func CalculateReadingTime(body string) ReadingTime {
	words := len(strings.Fields(body))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute

	return ReadingTime{
		Text:    fmt.Sprintf("%d min read", minutes),
		Minutes: minutes,
		Time:    int64(minutes) * 60 * 1000,
		Words:   words,
	}
}

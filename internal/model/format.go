package model

import (
	"fmt"
	"time"
)

// FormatFileSize форматирует размер файла в человекочитаемый вид
func FormatFileSize(sizeBytes int64) string {
	if sizeBytes == 0 {
		return "0B"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(sizeBytes)
	unitIndex := 0

	for size >= 1024.0 && unitIndex < len(units)-1 {
		size /= 1024.0
		unitIndex++
	}

	return fmt.Sprintf("%.2f%s", size, units[unitIndex])
}

// TimestampToDate конвертирует временную метку каталога (10-13 цифр) в YYYY-MM-DD.
// Возвращает пустую строку для невалидных значений.
func TimestampToDate(ts int64) string {
	if ts < 1e10 {
		// Меньше 10 цифр: невалидно
		return ""
	}
	if ts < 5e11 {
		// 10-11 цифр: секунды, переводим в миллисекунды
		ts *= 1000
	}

	// Диапазон 1970-01-01 .. 2100-12-31 в миллисекундах
	const maxTS = 4102444799000
	if ts < 0 || ts > maxTS {
		return ""
	}

	return time.UnixMilli(ts).UTC().Format("2006-01-02")
}

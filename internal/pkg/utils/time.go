// Package utils: time formatting, parsing, and calculation helpers.
package utils

import (
	"fmt"
	"time"
)

// Common time layout constants.
const (
	// DateTimeFormat is the standard date-time layout "2006-01-02 15:04:05".
	DateTimeFormat = "2006-01-02 15:04:05"
	// DateTimeMilliFormat adds milliseconds: "2006-01-02 15:04:05.000".
	DateTimeMilliFormat = "2006-01-02 15:04:05.000"
	// DateFormat is the date-only layout "2006-01-02".
	DateFormat = "2006-01-02"
	// TimeFormat is the time-only layout "15:04:05".
	TimeFormat = "15:04:05"
	// DateTimeCompactFormat has no separators: "20060102150405".
	DateTimeCompactFormat = "20060102150405"
	// ISO8601Format is the standard ISO8601/RFC3339 layout.
	ISO8601Format = time.RFC3339
	// TimestampFormat documents the expected width of a Unix timestamp (seconds).
	TimestampFormat = "1136239445"
)

// FormatDateTime formats t using DateTimeFormat.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeFormat)
}

// FormatDate formats t using DateFormat.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// FormatTime formats t using TimeFormat.
func FormatTime(t time.Time) string {
	return t.Format(TimeFormat)
}

// FormatCustom formats t using an arbitrary Go reference layout.
func FormatCustom(t time.Time, layout string) string {
	return t.Format(layout)
}

// ParseDateTime parses a date-time string, trying DateTimeFormat, then
// DateTimeMilliFormat, then RFC3339 in order.
func ParseDateTime(dateTimeStr string) (time.Time, error) {
	if t, err := time.Parse(DateTimeFormat, dateTimeStr); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DateTimeMilliFormat, dateTimeStr); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, dateTimeStr)
}

// ParseDateTimeMilli parses a date-time string with milliseconds.
func ParseDateTimeMilli(dateTimeStr string) (time.Time, error) {
	return time.Parse(DateTimeMilliFormat, dateTimeStr)
}

// ParseDate parses a date-only string.
func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse(DateFormat, dateStr)
}

// ParseCustom parses timeStr using an arbitrary Go reference layout.
func ParseCustom(timeStr, layout string) (time.Time, error) {
	return time.Parse(layout, timeStr)
}

// GetCurrentDateTime returns the current time formatted with DateTimeFormat.
func GetCurrentDateTime() string {
	return time.Now().Format(DateTimeFormat)
}

// GetCurrentDate returns the current date formatted with DateFormat.
func GetCurrentDate() string {
	return time.Now().Format(DateFormat)
}

// GetCurrentTime returns the current time formatted with TimeFormat.
func GetCurrentTime() string {
	return time.Now().Format(TimeFormat)
}

// GetCurrentTimestamp returns the current Unix timestamp in seconds.
func GetCurrentTimestamp() int64 {
	return time.Now().Unix()
}

// GetCurrentTimestampMilli returns the current Unix timestamp in milliseconds.
func GetCurrentTimestampMilli() int64 {
	return time.Now().UnixMilli()
}

// TimestampToTime converts a Unix timestamp (seconds) to a time.Time.
func TimestampToTime(timestamp int64) time.Time {
	return time.Unix(timestamp, 0)
}

// TimestampMilliToTime converts a Unix timestamp (milliseconds) to a time.Time.
func TimestampMilliToTime(timestampMilli int64) time.Time {
	return time.UnixMilli(timestampMilli)
}

// TimeToTimestamp converts a time.Time to a Unix timestamp in seconds.
func TimeToTimestamp(t time.Time) int64 {
	return t.Unix()
}

// TimeToTimestampMilli converts a time.Time to a Unix timestamp in milliseconds.
func TimeToTimestampMilli(t time.Time) int64 {
	return t.UnixMilli()
}

// AddDays returns t shifted by the given number of days (negative to go back).
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// AddHours returns t shifted by the given number of hours.
func AddHours(t time.Time, hours int) time.Time {
	return t.Add(time.Duration(hours) * time.Hour)
}

// AddMinutes returns t shifted by the given number of minutes.
func AddMinutes(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}

// AddSeconds returns t shifted by the given number of seconds.
func AddSeconds(t time.Time, seconds int) time.Time {
	return t.Add(time.Duration(seconds) * time.Second)
}

// DiffDays returns the whole-day difference t1 - t2.
func DiffDays(t1, t2 time.Time) int {
	duration := t1.Sub(t2)
	return int(duration.Hours() / 24)
}

// DiffHours returns the whole-hour difference t1 - t2.
func DiffHours(t1, t2 time.Time) int {
	duration := t1.Sub(t2)
	return int(duration.Hours())
}

// DiffMinutes returns the whole-minute difference t1 - t2.
func DiffMinutes(t1, t2 time.Time) int {
	duration := t1.Sub(t2)
	return int(duration.Minutes())
}

// DiffSeconds returns the whole-second difference t1 - t2.
func DiffSeconds(t1, t2 time.Time) int {
	duration := t1.Sub(t2)
	return int(duration.Seconds())
}

// IsToday reports whether t falls on the current calendar day.
func IsToday(t time.Time) bool {
	now := time.Now()
	return t.Year() == now.Year() && t.YearDay() == now.YearDay()
}

// IsYesterday reports whether t falls on the calendar day before today.
func IsYesterday(t time.Time) bool {
	yesterday := time.Now().AddDate(0, 0, -1)
	return t.Year() == yesterday.Year() && t.YearDay() == yesterday.YearDay()
}

// IsTomorrow reports whether t falls on the calendar day after today.
func IsTomorrow(t time.Time) bool {
	tomorrow := time.Now().AddDate(0, 0, 1)
	return t.Year() == tomorrow.Year() && t.YearDay() == tomorrow.YearDay()
}

// GetStartOfDay returns t's calendar day at 00:00:00.
func GetStartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// GetEndOfDay returns t's calendar day at 23:59:59.999999999.
func GetEndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// GetStartOfWeek returns the Monday 00:00:00 of the week containing t.
func GetStartOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // treat Sunday as day 7, not day 0
	}
	days := weekday - 1
	startOfWeek := t.AddDate(0, 0, -days)
	return GetStartOfDay(startOfWeek)
}

// GetEndOfWeek returns the Sunday 23:59:59 of the week containing t.
func GetEndOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	days := 7 - weekday
	endOfWeek := t.AddDate(0, 0, days)
	return GetEndOfDay(endOfWeek)
}

// GetStartOfMonth returns the 1st of t's month at 00:00:00.
func GetStartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// GetEndOfMonth returns the last instant of t's month.
func GetEndOfMonth(t time.Time) time.Time {
	startOfNextMonth := GetStartOfMonth(t).AddDate(0, 1, 0)
	return startOfNextMonth.Add(-time.Nanosecond)
}

// GetAge computes age in years from birthday to now.
func GetAge(birthday time.Time) int {
	now := time.Now()
	age := now.Year() - birthday.Year()

	if now.Month() < birthday.Month() || (now.Month() == birthday.Month() && now.Day() < birthday.Day()) {
		age--
	}

	return age
}

// FormatDuration renders d as a human-readable "1d2h3m4s"-style string.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var result string
	if days > 0 {
		result += fmt.Sprintf("%dd", days)
	}
	if hours > 0 {
		result += fmt.Sprintf("%dh", hours)
	}
	if minutes > 0 {
		result += fmt.Sprintf("%dm", minutes)
	}
	if seconds > 0 || result == "" {
		result += fmt.Sprintf("%ds", seconds)
	}

	return result
}

// IsLeapYear reports whether year is a leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// GetDaysInMonth returns the number of days in the given year/month.
func GetDaysInMonth(year int, month time.Month) int {
	firstDayOfNextMonth := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastDayOfMonth := firstDayOfNextMonth.AddDate(0, 0, -1)
	return lastDayOfMonth.Day()
}

// TimeZoneOffset returns t's offset from UTC in whole hours.
func TimeZoneOffset(t time.Time) int {
	_, offset := t.Zone()
	return offset / 3600
}

// ConvertTimeZone returns t converted into targetLocation (an IANA zone name).
func ConvertTimeZone(t time.Time, targetLocation string) (time.Time, error) {
	loc, err := time.LoadLocation(targetLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load time zone: %w", err)
	}
	return t.In(loc), nil
}

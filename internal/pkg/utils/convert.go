// Package utils: data conversion helpers shared across the agent.
package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ==================== basic type conversions ====================

// StringToInt converts str to int, returning defaultValue on empty input or parse failure.
func StringToInt(str string, defaultValue int) int {
	if str == "" {
		return defaultValue
	}
	if result, err := strconv.Atoi(str); err == nil {
		return result
	}
	return defaultValue
}

// StringToInt64 converts str to int64, returning defaultValue on empty input or parse failure.
func StringToInt64(str string, defaultValue int64) int64 {
	if str == "" {
		return defaultValue
	}
	if result, err := strconv.ParseInt(str, 10, 64); err == nil {
		return result
	}
	return defaultValue
}

// StringToUint converts str to uint, returning defaultValue on empty input or parse failure.
func StringToUint(str string, defaultValue uint) uint {
	if str == "" {
		return defaultValue
	}
	if result, err := strconv.ParseUint(str, 10, 32); err == nil {
		return uint(result)
	}
	return defaultValue
}

// StringToFloat64 converts str to float64, returning defaultValue on empty input or parse failure.
func StringToFloat64(str string, defaultValue float64) float64 {
	if str == "" {
		return defaultValue
	}
	if result, err := strconv.ParseFloat(str, 64); err == nil {
		return result
	}
	return defaultValue
}

// StringToBool converts str to bool, accepting "true"/"1"/"yes"/"on"/"enabled" as
// true and "false"/"0"/"no"/"off"/"disabled" as false. Anything else returns defaultValue.
func StringToBool(str string, defaultValue bool) bool {
	if str == "" {
		return defaultValue
	}

	str = strings.ToLower(strings.TrimSpace(str))
	switch str {
	case "true", "1", "yes", "on", "enabled":
		return true
	case "false", "0", "no", "off", "disabled":
		return false
	default:
		return defaultValue
	}
}

// ParseIntList parses a comma-separated list of ints and/or ranges
// (e.g. "80,443,1000-2000") into a deduplicated slice. Unparseable entries are skipped.
func ParseIntList(input string) []int {
	if input == "" {
		return nil
	}
	var result []int
	seen := make(map[int]bool)

	parts := strings.Split(input, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.Contains(p, "-") {
			rangeParts := strings.Split(p, "-")
			if len(rangeParts) == 2 {
				start, err1 := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
				end, err2 := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
				if err1 == nil && err2 == nil && start <= end {
					for i := start; i <= end; i++ {
						if !seen[i] {
							result = append(result, i)
							seen[i] = true
						}
					}
				}
			}
			continue
		}

		if val, err := strconv.Atoi(p); err == nil {
			if !seen[val] {
				result = append(result, val)
				seen[val] = true
			}
		}
	}
	return result
}

// IntToString converts an int to its decimal string form.
func IntToString(value int) string {
	return strconv.Itoa(value)
}

// Int64ToString converts an int64 to its decimal string form.
func Int64ToString(value int64) string {
	return strconv.FormatInt(value, 10)
}

// UintToString converts a uint to its decimal string form.
func UintToString(value uint) string {
	return strconv.FormatUint(uint64(value), 10)
}

// Float64ToString converts a float64 to a string with the given decimal precision.
func Float64ToString(value float64, precision int) string {
	return strconv.FormatFloat(value, 'f', precision, 64)
}

// BoolToString converts a bool to "true" or "false".
func BoolToString(value bool) string {
	return strconv.FormatBool(value)
}

// BoolToInt converts true to 1 and false to 0.
func BoolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// IntToBool converts a nonzero int to true and zero to false.
func IntToBool(value int) bool {
	return value != 0
}

// ==================== time conversions ====================

// StringToTime parses str as a time.Time, trying layout (if given) or a list
// of common formats otherwise.
func StringToTime(str string, layout ...string) (time.Time, error) {
	if str == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	if len(layout) > 0 && layout[0] != "" {
		return time.Parse(layout[0], str)
	}

	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05+08:00",
		"2006-01-02",
		"15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, str); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time string: %s", str)
}

// TimeToString formats t using layout (if given) or a default format otherwise.
// A zero time.Time formats to "".
func TimeToString(t time.Time, layout ...string) string {
	if t.IsZero() {
		return ""
	}

	if len(layout) > 0 && layout[0] != "" {
		return t.Format(layout[0])
	}

	return t.Format("2006-01-02 15:04:05")
}

// UnixToTime converts a Unix timestamp in seconds to a time.Time.
func UnixToTime(timestamp int64) time.Time {
	return time.Unix(timestamp, 0)
}

// TimeToUnix converts a time.Time to a Unix timestamp in seconds.
func TimeToUnix(t time.Time) int64 {
	return t.Unix()
}

// MillisToTime converts a Unix timestamp in milliseconds to a time.Time.
func MillisToTime(millis int64) time.Time {
	return time.Unix(millis/1000, (millis%1000)*1000000)
}

// TimeToMillis converts a time.Time to a Unix timestamp in milliseconds.
func TimeToMillis(t time.Time) int64 {
	return t.UnixNano() / 1000000
}

// ==================== JSON conversions ====================

// StructToJSON marshals data to its JSON string form.
func StructToJSON(data interface{}) (string, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal struct to JSON: %v", err)
	}
	return string(bytes), nil
}

// JSONToStruct unmarshals jsonStr into target.
func JSONToStruct(jsonStr string, target interface{}) error {
	if jsonStr == "" {
		return fmt.Errorf("JSON string cannot be empty")
	}

	if err := json.Unmarshal([]byte(jsonStr), target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON to struct: %v", err)
	}
	return nil
}

// StructToMap converts data to a map[string]interface{} via a JSON round-trip.
func StructToMap(data interface{}) (map[string]interface{}, error) {
	jsonStr, err := StructToJSON(data)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("failed to convert struct to map: %v", err)
	}

	return result, nil
}

// MapToStruct converts data into target via a JSON round-trip.
func MapToStruct(data map[string]interface{}, target interface{}) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal map to JSON: %v", err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON to struct: %v", err)
	}

	return nil
}

// ==================== slice conversions ====================

// StringSliceToIntSlice converts every element of strSlice to int, failing on
// the first unparseable entry.
func StringSliceToIntSlice(strSlice []string) ([]int, error) {
	result := make([]int, len(strSlice))
	for i, str := range strSlice {
		if val, err := strconv.Atoi(str); err != nil {
			return nil, fmt.Errorf("conversion failed: value '%s' at index %d is not a valid integer: %v", str, i, err)
		} else {
			result[i] = val
		}
	}
	return result, nil
}

// IntSliceToStringSlice converts every element of intSlice to its decimal string form.
func IntSliceToStringSlice(intSlice []int) []string {
	result := make([]string, len(intSlice))
	for i, val := range intSlice {
		result[i] = strconv.Itoa(val)
	}
	return result
}

// UintSliceToStringSlice converts every element of uintSlice to its decimal string form.
func UintSliceToStringSlice(uintSlice []uint) []string {
	result := make([]string, len(uintSlice))
	for i, val := range uintSlice {
		result[i] = strconv.FormatUint(uint64(val), 10)
	}
	return result
}

// StringSliceToUintSlice converts every element of strSlice to uint, failing on
// the first unparseable entry.
func StringSliceToUintSlice(strSlice []string) ([]uint, error) {
	result := make([]uint, len(strSlice))
	for i, str := range strSlice {
		if val, err := strconv.ParseUint(str, 10, 32); err != nil {
			return nil, fmt.Errorf("conversion failed: value '%s' at index %d is not a valid unsigned integer: %v", str, i, err)
		} else {
			result[i] = uint(val)
		}
	}
	return result, nil
}

// ==================== string case conversions ====================

// CamelToSnake converts CamelCase to snake_case, e.g. "UserName" -> "user_name".
func CamelToSnake(str string) string {
	if str == "" {
		return ""
	}

	var result strings.Builder
	for i, r := range str {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}

	return strings.ToLower(result.String())
}

// SnakeToCamel converts snake_case to CamelCase (or camelCase when firstUpper
// is false), e.g. "user_name" -> "UserName" / "userName".
func SnakeToCamel(str string, firstUpper bool) string {
	if str == "" {
		return ""
	}

	parts := strings.Split(str, "_")
	var result strings.Builder

	for i, part := range parts {
		if part == "" {
			continue
		}

		if i == 0 && !firstUpper {
			result.WriteString(strings.ToLower(part))
		} else {
			result.WriteString(strings.Title(strings.ToLower(part)))
		}
	}

	return result.String()
}

// StringToSlice splits str on separator.
func StringToSlice(str, separator string) []string {
	if str == "" {
		return []string{}
	}
	return strings.Split(str, separator)
}

// SliceToString joins slice with separator.
func SliceToString(slice []string, separator string) string {
	return strings.Join(slice, separator)
}

// ==================== pointer conversions ====================

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to i.
func IntPtr(i int) *int {
	return &i
}

// UintPtr returns a pointer to u.
func UintPtr(u uint) *uint {
	return &u
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// PtrToString dereferences ptr, or returns defaultValue if ptr is nil.
func PtrToString(ptr *string, defaultValue string) string {
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// PtrToInt dereferences ptr, or returns defaultValue if ptr is nil.
func PtrToInt(ptr *int, defaultValue int) int {
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// PtrToUint dereferences ptr, or returns defaultValue if ptr is nil.
func PtrToUint(ptr *uint, defaultValue uint) uint {
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// PtrToBool dereferences ptr, or returns defaultValue if ptr is nil.
func PtrToBool(ptr *bool, defaultValue bool) bool {
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// PtrToTime dereferences ptr, or returns defaultValue if ptr is nil.
func PtrToTime(ptr *time.Time, defaultValue time.Time) time.Time {
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// ==================== reflection-based conversion ====================

// ConvertType assigns src into *dst, converting between types when they
// differ but are convertible. Prefer a specific conversion function when one
// exists; this is a slower, general fallback.
func ConvertType(src interface{}, dst interface{}) error {
	srcValue := reflect.ValueOf(src)
	dstValue := reflect.ValueOf(dst)

	if dstValue.Kind() != reflect.Ptr {
		return fmt.Errorf("destination must be a pointer")
	}

	dstElem := dstValue.Elem()
	if !dstElem.CanSet() {
		return fmt.Errorf("destination value is not settable")
	}

	if srcValue.Type() == dstElem.Type() {
		dstElem.Set(srcValue)
		return nil
	}

	if srcValue.Type().ConvertibleTo(dstElem.Type()) {
		dstElem.Set(srcValue.Convert(dstElem.Type()))
		return nil
	}

	return fmt.Errorf("cannot convert type %v to %v", srcValue.Type(), dstElem.Type())
}

// DeepCopy copies src into dst via a JSON marshal/unmarshal round-trip.
// Simple but requires both to be JSON-serializable.
func DeepCopy(src interface{}, dst interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to marshal source data: %v", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal into destination: %v", err)
	}

	return nil
}

// ==================== validated conversions ====================

// SafeStringToInt converts str to int and checks it falls within [min, max].
func SafeStringToInt(str string, min, max int) (int, error) {
	if str == "" {
		return 0, fmt.Errorf("string cannot be empty")
	}

	value, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("string '%s' is not a valid integer: %v", str, err)
	}

	if value < min || value > max {
		return 0, fmt.Errorf("value %d is outside range [%d, %d]", value, min, max)
	}

	return value, nil
}

// SafeStringToFloat64 converts str to float64 and checks it falls within [min, max].
func SafeStringToFloat64(str string, min, max float64) (float64, error) {
	if str == "" {
		return 0, fmt.Errorf("string cannot be empty")
	}

	value, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("string '%s' is not a valid float: %v", str, err)
	}

	if value < min || value > max {
		return 0, fmt.Errorf("value %f is outside range [%f, %f]", value, min, max)
	}

	return value, nil
}

// ==================== miscellaneous ====================

// BytesToString converts a byte slice to a string.
func BytesToString(data []byte) string {
	return string(data)
}

// StringToBytes converts a string to a byte slice.
func StringToBytes(str string) []byte {
	return []byte(str)
}

// InterfaceToString renders value via fmt's default verb, or "" if value is nil.
func InterfaceToString(value interface{}) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%v", value)
}

// IsZeroValue reports whether value is nil or its type's zero value.
func IsZeroValue(value interface{}) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	return v.IsZero()
}

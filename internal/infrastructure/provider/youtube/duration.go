package youtube

import (
	"fmt"
	"regexp"
	"strconv"
)

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// FormatDuration 把 ISO-8601 时长（PT1H2M3S）格式化为 H:MM:SS 或 M:SS；无法解析时为 0:00
func FormatDuration(iso string) string {
	m := isoDuration.FindStringSubmatch(iso)
	if m == nil {
		return "0:00"
	}
	days := atoi(m[1])
	hours := atoi(m[2]) + days*24
	minutes := atoi(m[3])
	seconds := atoi(m[4])

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

package util

import (
	"regexp"
	"strconv"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug 校验 URL 短标识：小写字母、数字和连字符
func ValidSlug(s string) bool {
	if s == "" || len(s) > 100 {
		return false
	}
	return slugPattern.MatchString(s)
}

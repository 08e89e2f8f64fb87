package utils

import "strings"

const (
	DefaultCategory      = "Uncategorized"
	DefaultCalendarLabel = "Work"
	DefaultCategoryColor = "bg-purple-500"
)

func GetPriorityLabel(priority string) string {
	switch strings.ToLower(priority) {
	case "high":
		return "High"
	case "medium":
		return "Medium"
	case "low":
		return "Low"
	default:
		return ""
	}
}

func GetPriorityEmoji(priority string) string {
	switch strings.ToLower(priority) {
	case "high":
		return "🔴"
	case "medium":
		return "🟡"
	case "low":
		return "🟢"
	default:
		return "📌"
	}
}

// CategoryName defaults a missing category at render time.
func CategoryName(name *string, fallback string) string {
	if name == nil || strings.TrimSpace(*name) == "" {
		return fallback
	}
	return *name
}

// CategoryColor normalizes a stored color into a "bg-*" class. Bare color
// names such as "pink" become "bg-pink-500".
func CategoryColor(color *string) string {
	if color == nil || strings.TrimSpace(*color) == "" {
		return DefaultCategoryColor
	}
	c := strings.TrimSpace(*color)
	if strings.HasPrefix(c, "bg-") {
		return c
	}
	return "bg-" + c + "-500"
}

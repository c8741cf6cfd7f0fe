package util

type Envelope map[string]any

func Error(message string) Envelope {
	return Envelope{"error": message}
}

func Data(key string, value any) Envelope {
	return Envelope{key: value}
}

// Page wraps a list response with its pagination window.
func Page(key string, items any, total int64, limit, offset int) Envelope {
	return Envelope{
		key:      items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}
}

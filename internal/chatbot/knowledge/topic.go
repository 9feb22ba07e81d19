package knowledge

// Topic is one entry of the knowledge catalog.
type Topic struct {
	ID           string
	Label        string
	Keywords     []string
	Response     string
	QuickReplies []string
}

func (t Topic) clone() Topic {
	t.Keywords = append([]string(nil), t.Keywords...)
	t.QuickReplies = append([]string(nil), t.QuickReplies...)
	return t
}

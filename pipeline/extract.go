package pipeline

import (
	"log/slog"
	"strconv"
)

// socialPlatforms are the link fields carried on the nested user object.
var socialPlatforms = []string{"instagram", "twitter", "youtube", "discord", "tiktok", "facebook"}

// ExtractRecords validates the document's top-level shape and projects one
// UserRecord per element of "data", in input order. The shape check is
// strict; everything below it is tolerant — a mangled element still yields
// a record, just with fields absent.
func ExtractRecords(doc any) ([]UserRecord, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrInvalidShape
	}
	items, ok := obj["data"].([]any)
	if !ok {
		return nil, ErrInvalidShape
	}

	records := make([]UserRecord, 0, len(items))
	for _, item := range items {
		channel := childObject(item, "channel")
		user := childObject(channel, "user")

		rec := UserRecord{
			UserID:        stringField(user, "id"),
			Username:      stringField(user, "username"),
			Bio:           stringField(user, "bio"),
			SocialLinks:   make(map[string]string, len(socialPlatforms)),
			ProfilePicURL: stringField(user, "profilepic"),
		}
		for _, platform := range socialPlatforms {
			if link := stringField(user, platform); link != "" {
				rec.SocialLinks[platform] = link
			}
		}

		slog.Info("extracted record", "channel", channel, "user_id", rec.UserID, "username", rec.Username)
		PipelineStats.Extracted.Add(1)
		records = append(records, rec)
	}

	return records, nil
}

func childObject(parent any, key string) map[string]any {
	obj, ok := parent.(map[string]any)
	if !ok {
		return nil
	}
	child, _ := obj[key].(map[string]any)
	return child
}

// stringField reads an optional leaf. Numeric values (numeric user ids show
// up in the wild) are stringified; any other type counts as absent.
func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

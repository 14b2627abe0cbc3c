package testutil

import (
	"fmt"
	"strings"
)

// BoolPtr is a helper for creating *bool values in tests
func BoolPtr(v bool) *bool {
	return &v
}

// SubjectsJSON is a search_subjects payload with one rated and one unrated subject.
const SubjectsJSON = `{"subjects":[
{"id":"26752088","title":"我不是药神","rate":"9.0","cover":"https://img3.doubanio.com/view/photo/s_ratio_poster/public/p2561305376.webp","url":"https://movie.douban.com/subject/26752088/","cover_x":1080,"cover_y":1560,"is_new":false,"playable":true},
{"id":"35267208","title":"流浪地球2","rate":"","cover":"https://img1.doubanio.com/view/photo/s_ratio_poster/public/p2885955777.webp","url":"https://movie.douban.com/subject/35267208/","cover_x":2000,"cover_y":2800,"is_new":true,"playable":false}
]}`

// TagsJSON is a search_tags payload.
const TagsJSON = `{"tags":["热门","最新","豆瓣高分","冷门佳片"]}`

// SubjectOptions contains options for generating a subject entry
type SubjectOptions struct {
	ID       string
	Title    string
	Rate     string // empty renders as an unrated subject
	Cover    string // defaults to a doubanio.com poster URL
	IsNew    bool
	Playable *bool // defaults to true
}

// GenerateSubjectsJSON builds a search_subjects payload from the given options.
func GenerateSubjectsJSON(subjects ...SubjectOptions) string {
	var b strings.Builder
	b.WriteString(`{"subjects":[`)
	for i, s := range subjects {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(generateSubject(s))
	}
	b.WriteString(`]}`)
	return b.String()
}

func generateSubject(opts SubjectOptions) string {
	if opts.Cover == "" {
		opts.Cover = fmt.Sprintf("https://img9.doubanio.com/view/photo/s_ratio_poster/public/p%s.webp", opts.ID)
	}
	playable := true
	if opts.Playable != nil {
		playable = *opts.Playable
	}
	return fmt.Sprintf(
		`{"id":%q,"title":%q,"rate":%q,"cover":%q,"url":"https://movie.douban.com/subject/%s/","cover_x":1080,"cover_y":1560,"is_new":%t,"playable":%t}`,
		opts.ID, opts.Title, opts.Rate, opts.Cover, opts.ID, opts.IsNew, playable,
	)
}

// MirrorEnvelope wraps payload the way the mirror proxy does, as a JSON string
// in the contents field.
func MirrorEnvelope(payload string) string {
	return fmt.Sprintf(`{"contents":%q,"status":{"url":"","content_type":"application/json","http_code":200}}`, payload)
}

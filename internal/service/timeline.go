package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"quill/internal/repository"

	"golang.org/x/sync/errgroup"
)

// TimelineItem 是时间轴上的一条记录。
type TimelineItem struct {
	ID   string `json:"id"`
	Type string `json:"type"` // "article" 或 "essay"
	Text string `json:"text"`
	URL  string `json:"url"`
}

type TimelineDay struct {
	Date string         `json:"date"`
	Data []TimelineItem `json:"data"`
}

type TimelineMonth struct {
	Month string        `json:"month"`
	Data  []TimelineDay `json:"data"`
}

// TimelineService 把文章与随笔按 年→月→日 聚合，月与日都按倒序排列。
type TimelineService struct {
	articles repository.ArticleRepository
	essays   repository.EssayRepository
	loc      *time.Location
}

func NewTimelineService(articles repository.ArticleRepository, essays repository.EssayRepository) *TimelineService {
	return &TimelineService{articles: articles, essays: essays, loc: time.Local}
}

func (s *TimelineService) Timeline(ctx context.Context, year int) ([]TimelineMonth, error) {
	var (
		articles []repository.Article
		essays   []repository.Essay
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		articles, err = s.articles.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		essays, err = s.essays.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}

	days := map[string]map[string][]TimelineItem{}
	add := func(t time.Time, item TimelineItem) {
		t = t.In(s.loc)
		if t.Year() != year {
			return
		}
		month, date := t.Format("01"), t.Format("02")
		if days[month] == nil {
			days[month] = map[string][]TimelineItem{}
		}
		days[month][date] = append(days[month][date], item)
	}

	for _, a := range articles {
		add(a.CreateTime, TimelineItem{ID: a.ID, Type: "article", Text: a.Title, URL: "/article/" + a.ID})
	}
	for _, e := range essays {
		add(e.CreateTime, TimelineItem{ID: e.ID, Type: "essay", Text: e.Content})
	}

	months := make([]TimelineMonth, 0, len(days))
	for _, month := range sortedDesc(days) {
		dates := days[month]
		entry := TimelineMonth{Month: month}
		for _, date := range sortedDesc(dates) {
			entry.Data = append(entry.Data, TimelineDay{Date: date, Data: dates[date]})
		}
		months = append(months, entry)
	}
	return months, nil
}

// sortedDesc 对零填充的两位数字键倒序排序。
func sortedDesc[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

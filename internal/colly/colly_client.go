package colly

import (
	"entrylist/internal/config"

	"github.com/gocolly/colly/v2"
)

// NewCollector builds a collector from cfg. Callers clone it per fetch.
func NewCollector(cfg config.CollyConfig) *colly.Collector {
	c := colly.NewCollector(
		colly.MaxDepth(cfg.MaxRedirects),
		colly.MaxBodySize(cfg.MaxSize),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	c.SetRequestTimeout(cfg.TimeOut)
	return c
}

package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/nao1215/golpeguard/pkg/config"
)

// Route はプレフィックスと転送先の組。
type Route struct {
	// Prefix はマッチさせるパスのプレフィックス。
	Prefix string
	// Target は転送先サービスのベースURL。
	Target *url.URL
}

// matches はpathがプレフィックスにマッチするかを返す。
// パスの区切りに沿ってマッチさせるため /api/auth は /api/authx にマッチしない。
func (r Route) matches(path string) bool {
	if !strings.HasPrefix(path, r.Prefix) {
		return false
	}
	if len(path) == len(r.Prefix) || strings.HasSuffix(r.Prefix, "/") {
		return true
	}
	return path[len(r.Prefix)] == '/'
}

// RouteTable は起動時に構築する不変のルーティング表。
// 複数のgoroutineから同時に参照できる。
type RouteTable struct {
	routes []Route
}

// NewRouteTable は設定からルーティング表を構築する。
// プレフィックスが長いものから順に評価する。
func NewRouteTable(rules []config.Route) (*RouteTable, error) {
	if len(rules) == 0 {
		return nil, errors.New("ルーティング規則が空です")
	}

	seen := make(map[string]struct{}, len(rules))
	routes := make([]Route, 0, len(rules))
	for _, rule := range rules {
		if !strings.HasPrefix(rule.Prefix, "/") {
			return nil, fmt.Errorf("プレフィックスは/で始まる必要があります: %q", rule.Prefix)
		}
		if _, dup := seen[rule.Prefix]; dup {
			return nil, fmt.Errorf("プレフィックスが重複しています: %q", rule.Prefix)
		}
		seen[rule.Prefix] = struct{}{}

		target, err := url.Parse(rule.Target)
		if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
			return nil, fmt.Errorf("転送先URLが不正です: prefix=%s, target=%q", rule.Prefix, rule.Target)
		}
		target.Path = strings.TrimSuffix(target.Path, "/")
		routes = append(routes, Route{Prefix: rule.Prefix, Target: target})
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return len(routes[i].Prefix) > len(routes[j].Prefix)
	})
	return &RouteTable{routes: routes}, nil
}

// Match はpathにマッチする最長プレフィックスのルートを返す。
func (t *RouteTable) Match(path string) (Route, bool) {
	for _, r := range t.routes {
		if r.matches(path) {
			return r, true
		}
	}
	return Route{}, false
}

// Routes は評価順のルート一覧のコピーを返す。
func (t *RouteTable) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

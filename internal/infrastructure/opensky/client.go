package opensky

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sanosuguru/go-flight-reservation/internal/config"
)

// LiveFlight はOpenSky Networkの状態ベクトル1件分
// フィードの生データであり、フライトへの変換はアプリケーション層が行う
type LiveFlight struct {
	Callsign      string
	OriginCountry string
	LastContact   time.Time
	Latitude      float64
	Longitude     float64
}

// Client はOpenSky Network REST APIのクライアント
// 認証不要の公開エンドポイントのみを使用するベストエフォートなフィード
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient は新しいOpenSkyクライアントを作成する
func NewClient(cfg *config.FeedConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// statesResponse は /states/all のレスポンス
// states は型が混在した配列の配列で届く
type statesResponse struct {
	Time   int64   `json:"time"`
	States [][]any `json:"states"`
}

// FetchStates は現在飛行中の航空機の状態一覧を取得する
func (c *Client) FetchStates(ctx context.Context) ([]LiveFlight, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/states/all", nil)
	if err != nil {
		return nil, fmt.Errorf("フィードリクエスト作成に失敗: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("フィード取得に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("フィードがステータス %d を返しました", resp.StatusCode)
	}

	var body statesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("フィードのデコードに失敗: %w", err)
	}

	flights := make([]LiveFlight, 0, len(body.States))
	for _, state := range body.States {
		lf, ok := parseState(state)
		if !ok {
			// 欠損データの状態ベクトルは読み飛ばす
			continue
		}
		flights = append(flights, lf)
	}
	return flights, nil
}

// parseState は状態ベクトルをLiveFlightに変換する
// インデックス: 1=callsign, 2=origin_country, 4=last_contact, 5=longitude, 6=latitude
func parseState(state []any) (LiveFlight, bool) {
	if len(state) < 7 {
		return LiveFlight{}, false
	}

	callsign := strings.TrimSpace(stringAt(state, 1))
	if len(callsign) < 3 {
		return LiveFlight{}, false
	}

	lf := LiveFlight{
		Callsign:      callsign,
		OriginCountry: stringAt(state, 2),
		Longitude:     floatAt(state, 5),
		Latitude:      floatAt(state, 6),
	}
	if ts := floatAt(state, 4); ts > 0 {
		lf.LastContact = time.Unix(int64(ts), 0)
	} else {
		lf.LastContact = time.Now()
	}
	return lf, true
}

func stringAt(state []any, i int) string {
	if s, ok := state[i].(string); ok {
		return s
	}
	return ""
}

func floatAt(state []any, i int) float64 {
	if f, ok := state[i].(float64); ok {
		return f
	}
	return 0
}

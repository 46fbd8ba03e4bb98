package golpes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/golpeguard/pkg/config"
	"github.com/nao1215/golpeguard/pkg/database"
	"github.com/nao1215/golpeguard/pkg/golpe"
	"github.com/nao1215/golpeguard/pkg/migration"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer はインメモリSQLiteを使用するテスト用サーバーを生成する。
func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := database.Open(context.Background(), config.Database{Driver: config.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("インメモリDB接続に失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migration.Run(db, migrationsFS, "migrations", zap.NewNop()); err != nil {
		t.Fatalf("マイグレーションに失敗: %v", err)
	}

	store := NewStore(db)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return newServer("0", store, zap.NewNop())
}

// doJSON はJSONボディ付きのリクエストを送信する。
func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("リクエストボディのシリアライズに失敗: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

// seedReport はテスト用の詐欺報告を登録する。
func seedReport(t *testing.T, s *Server, nomeEmpresa string, empresaID *int64) golpe.Report {
	t.Helper()

	w := doJSON(t, s, http.MethodPost, "/api/cadastrogolpes", map[string]any{
		"nomeEmpresa":     nomeEmpresa,
		"local":           "São Paulo",
		"meioContato":     "WhatsApp",
		"descricao":       "falso boleto",
		"contatoGolpista": "+55 11 99999-0000",
		"empresaId":       empresaID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("テスト用詐欺報告の登録に失敗: status=%d body=%s", w.Code, w.Body.String())
	}
	var r golpe.Report
	if err := json.Unmarshal(w.Body.Bytes(), &r); err != nil {
		t.Fatalf("レスポンスのパースに失敗: %v", err)
	}
	return r
}

func int64Ptr(v int64) *int64 { return &v }

// TestHandleCreate は詐欺報告登録ハンドラのテスト。
func TestHandleCreate(t *testing.T) {
	t.Parallel()

	t.Run("企業名が正規化されて登録されること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		r := seedReport(t, s, "  acme  ", int64Ptr(3))

		if r.ID == 0 {
			t.Error("IDが採番されていない")
		}
		if r.CompanyName != "ACME" {
			t.Errorf("nomeEmpresa = %q, want %q", r.CompanyName, "ACME")
		}
		if r.EmpresaID == nil || *r.EmpresaID != 3 {
			t.Errorf("empresaId = %v, want 3", r.EmpresaID)
		}
		if r.CreatedAt.IsZero() {
			t.Error("criadoEmが設定されていない")
		}
	})

	t.Run("必須項目が欠けている場合400が返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		w := doJSON(t, s, http.MethodPost, "/api/cadastrogolpes", map[string]any{"nomeEmpresa": "ACME"})

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("企業名が空白のみの場合400が返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		w := doJSON(t, s, http.MethodPost, "/api/cadastrogolpes", map[string]any{
			"nomeEmpresa": "   ",
			"meioContato": "SMS",
			"descricao":   "x",
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestHandleList は一覧・企業名検索ハンドラのテスト。
func TestHandleList(t *testing.T) {
	t.Parallel()

	t.Run("企業名で大文字小文字と空白を無視して検索できること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		seedReport(t, s, "ACME", nil)
		seedReport(t, s, "acme", int64Ptr(99))
		seedReport(t, s, "OTHER", nil)

		w := doJSON(t, s, http.MethodGet, "/api/cadastrogolpes?empresa=%20Acme%20", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}

		var reports []golpe.Report
		if err := json.Unmarshal(w.Body.Bytes(), &reports); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if len(reports) != 2 {
			t.Fatalf("件数: got %d, want 2", len(reports))
		}
		for _, r := range reports {
			if r.CompanyName != "ACME" {
				t.Errorf("nomeEmpresa = %q, want %q", r.CompanyName, "ACME")
			}
		}
		// 新しい順
		if !reports[0].CreatedAt.After(reports[1].CreatedAt) {
			t.Errorf("並び順が新しい順ではない: %v, %v", reports[0].CreatedAt, reports[1].CreatedAt)
		}
	})

	t.Run("一致する報告が無い場合は空配列が返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		w := doJSON(t, s, http.MethodGet, "/api/cadastrogolpes?empresa=GHOST", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		if got := w.Body.String(); got != "[]" {
			t.Errorf("body = %q, want %q", got, "[]")
		}
	})

	t.Run("クエリなしで全件が返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		seedReport(t, s, "ACME", nil)
		seedReport(t, s, "OTHER", nil)

		w := doJSON(t, s, http.MethodGet, "/api/cadastrogolpes", nil)
		var reports []golpe.Report
		if err := json.Unmarshal(w.Body.Bytes(), &reports); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if len(reports) != 2 {
			t.Errorf("件数: got %d, want 2", len(reports))
		}
	})
}

// TestHandleGetAndDelete は詳細取得・削除ハンドラのテスト。
func TestHandleGetAndDelete(t *testing.T) {
	t.Parallel()

	t.Run("登録した報告を取得して削除できること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		created := seedReport(t, s, "ACME", nil)
		path := "/api/cadastrogolpes/" + jsonNumber(created.ID)

		w := doJSON(t, s, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("取得のステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		var got golpe.Report
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if got.ID != created.ID || got.Description != "falso boleto" {
			t.Errorf("取得結果 = %+v", got)
		}
		if got.EmpresaID != nil {
			t.Errorf("empresaId = %v, want nil", *got.EmpresaID)
		}

		if w := doJSON(t, s, http.MethodDelete, path, nil); w.Code != http.StatusNoContent {
			t.Fatalf("削除のステータスコード: got %d, want %d", w.Code, http.StatusNoContent)
		}
		if w := doJSON(t, s, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
			t.Errorf("削除後の取得: got %d, want %d", w.Code, http.StatusNotFound)
		}
		if w := doJSON(t, s, http.MethodDelete, path, nil); w.Code != http.StatusNotFound {
			t.Errorf("削除済みの削除: got %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("不正なIDで400が返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		for _, path := range []string{"/api/cadastrogolpes/abc", "/api/cadastrogolpes/0"} {
			if w := doJSON(t, s, http.MethodGet, path, nil); w.Code != http.StatusBadRequest {
				t.Errorf("GET %s: got %d, want %d", path, w.Code, http.StatusBadRequest)
			}
		}
	})
}

// TestHealth はヘルスチェックのテスト。
func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
	}
}

func jsonNumber(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

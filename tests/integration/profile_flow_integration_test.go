//go:build integration

package integration_test

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("TIGERTRUST_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

func adminLogin(t *testing.T, client *http.Client, base string) string {
	t.Helper()
	email := os.Getenv("TIGERTRUST_TEST_ADMIN_EMAIL")
	password := os.Getenv("TIGERTRUST_TEST_ADMIN_PASSWORD")
	if email == "" || password == "" {
		t.Skip("TIGERTRUST_TEST_ADMIN_EMAIL/TIGERTRUST_TEST_ADMIN_PASSWORD not set")
	}
	var res struct {
		Token string `json:"token"`
	}
	doPost(t, client, base+"/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if res.Token == "" {
		t.Fatalf("login did not return token")
	}
	return res.Token
}

func randomOwner(t *testing.T) string {
	t.Helper()
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return hex.EncodeToString(buf)
}

func TestProfileLifecycleIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()
	token := adminLogin(t, client, base)
	owner := randomOwner(t)

	var created struct {
		Owner          string `json:"owner"`
		ProfileAddress string `json:"profile_address"`
		TigerScore     uint16 `json:"tiger_score"`
		LevelUpTier    uint8  `json:"level_up_tier"`
	}
	doPost(t, client, base+"/api/profiles", "", map[string]string{"owner": owner}, &created)
	if created.Owner != owner || created.ProfileAddress == "" {
		t.Fatalf("unexpected create response: %+v", created)
	}
	if created.TigerScore != 0 || created.LevelUpTier != 0 {
		t.Fatalf("new profile should start at 0/0: %+v", created)
	}

	// Second create for the same owner must be a conflict.
	if status := rawPost(t, client, base+"/api/profiles", "", map[string]string{"owner": owner}); status != http.StatusConflict {
		t.Fatalf("duplicate create returned %d, want 409", status)
	}

	var updated struct {
		TigerScore              uint16 `json:"tiger_score"`
		LevelUpTier             uint8  `json:"level_up_tier"`
		ActivityRegularityScore uint8  `json:"activity_regularity_score"`
	}
	doPost(t, client, base+"/api/profiles/"+owner+"/reputation-factors", token, map[string]any{
		"wallet_age_months":          6,
		"transaction_count":          150,
		"has_nft":                    true,
		"verified_credentials_count": 5,
		"has_income_verification":    true,
		"activity_regularity_score":  100,
	}, &updated)
	if updated.TigerScore != 580 || updated.LevelUpTier != 3 || updated.ActivityRegularityScore != 40 {
		t.Fatalf("unexpected profile after factor update: %+v", updated)
	}

	var overridden struct {
		TigerScore  uint16 `json:"tiger_score"`
		LevelUpTier uint8  `json:"level_up_tier"`
	}
	doPost(t, client, base+"/api/profiles/"+owner+"/score-override", token, map[string]any{
		"new_score": 2000,
		"new_tier":  5,
	}, &overridden)
	if overridden.TigerScore != 660 || overridden.LevelUpTier != 5 {
		t.Fatalf("override stored %d/%d, want 660/5", overridden.TigerScore, overridden.LevelUpTier)
	}

	// Admin operations without a token must be rejected.
	if status := rawPost(t, client, base+"/api/profiles/"+owner+"/human-verification", "", map[string]bool{"is_verified": true}); status != http.StatusUnauthorized {
		t.Fatalf("unauthenticated update returned %d, want 401", status)
	}
}

func doPost(t *testing.T, client *http.Client, url, token string, body, out any) {
	t.Helper()
	status, data := post(t, client, url, token, body)
	if status != http.StatusOK {
		t.Fatalf("POST %s: status %d: %s", url, status, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("POST %s: decode: %v", url, err)
		}
	}
}

func rawPost(t *testing.T, client *http.Client, url, token string, body any) int {
	t.Helper()
	status, _ := post(t, client, url, token, body)
	return status
}

func post(t *testing.T, client *http.Client, url, token string, body any) (int, []byte) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, data
}

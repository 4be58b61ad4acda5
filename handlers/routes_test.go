package handlers

import (
	"net/http"
	"testing"
	"time"

	"jungle-squad-academy/models"

	"github.com/google/uuid"
)

func userHeaders(userID string) map[string]string {
	return map[string]string{
		"X-User-ID":    userID,
		"Content-Type": "application/json",
	}
}

func adminHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + testAdminSecret,
		"Content-Type":  "application/json",
	}
}

func seedCompetition(t *testing.T, env *testEnv, start, end time.Time) *models.Competition {
	t.Helper()
	comp := models.Competition{
		ID:        uuid.NewString(),
		Title:     "Weekly XP Race",
		Slug:      "weekly-xp-race-" + uuid.NewString(),
		Theme:     "math",
		StartDate: start,
		EndDate:   end,
		Status:    models.CompetitionStatusActive,
	}
	if err := env.DB.Create(&comp).Error; err != nil {
		t.Fatalf("seed competition: %v", err)
	}
	return &comp
}

func TestSubmitScore_ClosedCompetition(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	comp := seedCompetition(t, env, now.Add(-72*time.Hour), now.Add(-24*time.Hour))

	resp := env.request(t, http.MethodPost, "/user/competitions/"+comp.ID+"/score",
		`{"xp_delta": 50}`, userHeaders("user-1"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("closed competition score: got status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestSubmitScore_UnknownCompetition(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/user/competitions/"+uuid.NewString()+"/score",
		`{"xp_delta": 50}`, userHeaders("user-1"))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown competition score: got status %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestOptIn_ClosedCompetition(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	comp := seedCompetition(t, env, now.Add(-72*time.Hour), now.Add(-24*time.Hour))

	resp := env.request(t, http.MethodPost, "/user/competitions/"+comp.ID+"/opt-in",
		"", userHeaders("user-1"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("closed competition opt-in: got status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestSpendCoins_InsufficientBalance(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Coins.EnsureWallet("user-1"); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}

	resp := env.request(t, http.MethodPost, "/user/economy/coins/spend",
		`{"amount": 1000, "description": "cosmetic"}`, userHeaders("user-1"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("overdraw spend: got status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestSpendCoins_MissingWallet(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/user/economy/coins/spend",
		`{"amount": 1, "description": "cosmetic"}`, userHeaders("ghost"))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("spend without wallet: got status %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestFreeCoin_SecondClaimSameDay(t *testing.T) {
	env := newTestEnv(t)

	first := env.request(t, http.MethodPost, "/user/economy/coins/free", "", userHeaders("user-1"))
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first claim: got status %d, want %d", first.StatusCode, http.StatusOK)
	}
	second := env.request(t, http.MethodPost, "/user/economy/coins/free", "", userHeaders("user-1"))
	if second.StatusCode != http.StatusBadRequest {
		t.Errorf("second claim: got status %d, want %d", second.StatusCode, http.StatusBadRequest)
	}
}

func TestVoteQuote_RuleRejections(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()

	quote, err := env.Rewards.SubmitQuote("author", "perseverance", "Small steps still climb mountains.")
	if err != nil {
		t.Fatalf("seed quote: %v", err)
	}
	if _, err := env.Rewards.ApproveQuote(quote.ID, false, now); err != nil {
		t.Fatalf("approve quote: %v", err)
	}

	if resp := env.request(t, http.MethodPost, "/user/quotes/"+quote.ID+"/vote", "", userHeaders("voter")); resp.StatusCode != http.StatusCreated {
		t.Fatalf("first vote: got status %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if resp := env.request(t, http.MethodPost, "/user/quotes/"+quote.ID+"/vote", "", userHeaders("voter")); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("repeat vote: got status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if resp := env.request(t, http.MethodPost, "/user/quotes/"+quote.ID+"/vote", "", userHeaders("author")); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("self vote: got status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestApproveQuote_SecondJudgement(t *testing.T) {
	env := newTestEnv(t)

	quote, err := env.Rewards.SubmitQuote("author", "curiosity", "Every question is a door left ajar.")
	if err != nil {
		t.Fatalf("seed quote: %v", err)
	}

	if resp := env.request(t, http.MethodPost, "/admin/quotes/"+quote.ID+"/approve", "", adminHeaders()); resp.StatusCode != http.StatusOK {
		t.Fatalf("first approval: got status %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if resp := env.request(t, http.MethodPost, "/admin/quotes/"+quote.ID+"/approve", "", adminHeaders()); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("second approval: got status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestEndCompetition_SecondEnd(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	comp := seedCompetition(t, env, now.Add(-72*time.Hour), now.Add(-1*time.Hour))

	if resp := env.request(t, http.MethodPost, "/admin/competitions/"+comp.ID+"/end", "", adminHeaders()); resp.StatusCode != http.StatusOK {
		t.Fatalf("first end: got status %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if resp := env.request(t, http.MethodPost, "/admin/competitions/"+comp.ID+"/end", "", adminHeaders()); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("second end: got status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestCreateCompetition_MalformedThreshold(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()

	form := "title=Spring+Sprint" +
		"&start_date=" + now.Format(time.RFC3339) +
		"&end_date=" + now.Add(48*time.Hour).Format(time.RFC3339) +
		"&participation_threshold=lots"
	resp := env.request(t, http.MethodPost, "/admin/competitions", form, map[string]string{
		"Authorization": "Bearer " + testAdminSecret,
		"Content-Type":  "application/x-www-form-urlencoded",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed threshold: got status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestSecuredRoute_MissingUserHeader(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/user/economy", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("missing X-User-ID: got status %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestAdminRoute_BadToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/admin/quotes/"+uuid.NewString()+"/approve", "", map[string]string{
		"Authorization": "Bearer wrong-secret",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad admin token: got status %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

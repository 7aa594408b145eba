package domain

import (
	"testing"
)

// ─── Coins Tests ────────────────────────────────────────────────────────────

func TestCoins_String(t *testing.T) {
	tests := []struct {
		name   string
		amount Coins
		want   string
	}{
		{"zero", 0, "0i"},
		{"irons only", 42, "42i"},
		{"one copper", 100, "1c"},
		{"mixed", 10203, "1s, 2c, 3i"},
		{"full spread", 1020304, "1g, 2s, 3c, 4i"},
		{"silver and irons", 10005, "1s, 5i"},
		{"negative", -150, "-1c, 50i"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.amount.String()
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCoins_Breakdown_Conserves(t *testing.T) {
	amounts := []Coins{1, 99, 100, 101, 10203, 1020304, 999999}
	for _, amount := range amounts {
		var sum Coins
		for _, d := range amount.Breakdown() {
			sum += d
		}
		if sum != amount {
			t.Errorf("Breakdown(%d) sums to %d, want %d", amount, sum, amount)
		}
	}
}

func TestCoins_Breakdown_LargestFirst(t *testing.T) {
	parts := Coins(10203).Breakdown()
	for i := 1; i < len(parts); i++ {
		if parts[i] > parts[i-1] {
			t.Fatalf("breakdown not largest-first: %v", parts)
		}
	}
}

func TestCoins_Breakdown_NonPositive(t *testing.T) {
	if got := Coins(0).Breakdown(); got != nil {
		t.Errorf("Breakdown(0) = %v, want nil", got)
	}
	if got := Coins(-5).Breakdown(); got != nil {
		t.Errorf("Breakdown(-5) = %v, want nil", got)
	}
}

// ─── Job Record Tests ───────────────────────────────────────────────────────

func TestJobState_String(t *testing.T) {
	tests := []struct {
		state JobState
		want  string
	}{
		{JobTodo, "TODO"},
		{JobDone, "DONE"},
		{JobCollected, "COLLECTED"},
		{JobState(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("JobState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestJobRecord_Outstanding(t *testing.T) {
	j := JobRecord{State: JobTodo}
	if !j.Outstanding() {
		t.Error("Todo record should be outstanding")
	}
	j.State = JobDone
	if j.Outstanding() {
		t.Error("Done record should not be outstanding")
	}
	j.State = JobCollected
	if j.Outstanding() {
		t.Error("Collected record should not be outstanding")
	}
}

func TestJobRecord_DonationPriceZero(t *testing.T) {
	j := JobRecord{Kind: KindDonation, PriceCharged: 0}
	if !j.IsDonation() {
		t.Error("IsDonation() = false for donation record")
	}
	if j.PriceCharged != 0 {
		t.Errorf("donation PriceCharged = %d, want 0", j.PriceCharged)
	}
}

// ─── Worker Tests ───────────────────────────────────────────────────────────

func TestWorker_Skill(t *testing.T) {
	w := &Worker{Skills: map[SkillGroup]int{GroupBlacksmithing: 70}}

	if s, ok := w.Skill(GroupBlacksmithing); !ok || s != 70 {
		t.Errorf("Skill(blacksmithing) = %d,%v, want 70,true", s, ok)
	}
	if _, ok := w.Skill(GroupPottery); ok {
		t.Error("Skill(pottery) should not be accepted")
	}
	if !w.Accepts(GroupBlacksmithing) {
		t.Error("Accepts(blacksmithing) = false")
	}
}

func TestWorker_Skill_NilSafe(t *testing.T) {
	var w *Worker
	if _, ok := w.Skill(GroupCarpentry); ok {
		t.Error("nil worker should accept nothing")
	}
	if w.HasCommunity() {
		t.Error("nil worker has no community")
	}
}

func TestWorker_HasCommunity(t *testing.T) {
	w := &Worker{CommunityID: "newspring"}
	if !w.HasCommunity() {
		t.Error("HasCommunity() = false with community set")
	}
	w.CommunityID = ""
	if w.HasCommunity() {
		t.Error("HasCommunity() = true with no community")
	}
}

// ─── Error Tests ────────────────────────────────────────────────────────────

func TestSentinelErrors(t *testing.T) {
	errs := []struct {
		name string
		err  error
	}{
		{"ErrNoWorkBook", ErrNoWorkBook},
		{"ErrWorkBookFull", ErrWorkBookFull},
		{"ErrUnknownJob", ErrUnknownJob},
		{"ErrSessionBusy", ErrSessionBusy},
		{"ErrSessionClosed", ErrSessionClosed},
		{"ErrItemGone", ErrItemGone},
	}

	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Errorf("%s is nil", tt.name)
			}
			if tt.err.Error() == "" {
				t.Errorf("%s.Error() is empty", tt.name)
			}
		})
	}
}

// ─── Earnings Ledger Tests ──────────────────────────────────────────────────

func TestAccounts_Distinct(t *testing.T) {
	accounts := []Account{AccountWorker, AccountUpkeep, AccountTreasury}
	seen := make(map[Account]bool)
	for _, a := range accounts {
		if seen[a] {
			t.Errorf("duplicate Account: %s", a)
		}
		seen[a] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 unique Accounts, got %d", len(seen))
	}
}

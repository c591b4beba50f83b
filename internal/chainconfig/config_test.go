package chainconfig

import "testing"

func u64(v uint64) *uint64 { return &v }

func TestGetForkBlockAndTimeGates(t *testing.T) {
	cfg := &ChainConfig{
		ChainID:        1,
		HomesteadBlock: u64(1),
		EIP150Block:    u64(2),
		LondonBlock:    u64(10),
		ShanghaiTime:   u64(1000),
		CancunTime:     u64(2000),
	}

	cases := []struct {
		number, timestamp uint64
		want              Fork
	}{
		{0, 0, Frontier},
		{1, 0, Homestead},
		{2, 0, TangerineWhistle},
		{10, 0, London},
		{10, 999, London},
		{10, 1000, Shanghai},
		{10, 2000, Cancun},
	}
	for _, c := range cases {
		if got := cfg.GetFork(c.number, c.timestamp); got != c.want {
			t.Errorf("GetFork(%d, %d) = %s, want %s", c.number, c.timestamp, got, c.want)
		}
	}
}

func TestIsCancun(t *testing.T) {
	cfg := &ChainConfig{CancunTime: u64(100)}
	if cfg.IsCancun(0, 99) {
		t.Fatal("expected Cancun not active before its timestamp gate")
	}
	if !cfg.IsCancun(0, 100) {
		t.Fatal("expected Cancun active at its timestamp gate")
	}
}

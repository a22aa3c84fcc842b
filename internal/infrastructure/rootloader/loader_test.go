package rootloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRootAddresses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roots.txt")
	body := `# seed wallets
0x0000000000000000000000000000000000000001

0x0000000000000000000000000000000000000002, 0x0000000000000000000000000000000000000003
not-an-address
0x0000000000000000000000000000000000000001
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	var skipped int
	logFn := func(msg string, args ...any) {
		if msg == "Skipping invalid root address" {
			skipped++
		}
	}

	roots, err := NewRootFileLoader(path, logFn).GetRootAddresses()
	require.NoError(t, err)
	assert.Equal(t, []common.Address{
		common.HexToAddress("0x01"),
		common.HexToAddress("0x02"),
		common.HexToAddress("0x03"),
	}, roots)
	assert.Equal(t, 1, skipped)
}

func TestGetRootAddresses_MissingFile(t *testing.T) {
	_, err := NewRootFileLoader(filepath.Join(t.TempDir(), "missing.txt"), nil).GetRootAddresses()
	require.Error(t, err)
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Neo Trader Configuration

[trading]
# Exchange segment: nse_cm, nse_fo, bse_cm, mcx_fo
exchange_segment = "mcx_fo"
# Product type: MIS, CNC, NRML
product = "MIS"
# Order validity: DAY, IOC
validity = "DAY"

[strategy]
# Amount subtracted from the realized sell price to get the next buy price
down_offset = "300"
# Amount added to the realized buy price to get the next sell price
up_offset = "150"
# Delay between order report polls
poll_interval = "2s"
# Maximum report polls per order, 0 polls until the order is terminal
max_polls = 0
# Maximum sell/buy cycles, 0 runs until interrupted
max_cycles = 0
`

const credentialsTemplate = `# Neo Trader Credentials
# Fill in your Kotak Neo account details. Environment variables
# (KOTAK_CONSUMER_KEY, KOTAK_MOBILE, KOTAK_UCC, KOTAK_MPIN,
# KOTAK_TOTP_SECRET) override values in this file.

[kotak]
consumer_key = ""
# Mobile number registered with the account, e.g. "+919999999999"
mobile = ""
# Unique client code
ucc = ""
# Numeric trading PIN
mpin = ""
# Optional: base32 TOTP secret for unattended login. Leave empty to be
# prompted for the authenticator code.
totp_secret = ""
`

// writeTemplate creates a template configuration file so a first run
// leaves something editable behind.
func writeTemplate(configDir, name, content string) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

package session

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

// TOTPSource generates the one-time passcode from a configured
// authenticator secret, enabling unattended login.
func TOTPSource(secret string) OTPSource {
	return func() (string, error) {
		code, err := totp.GenerateCode(strings.TrimSpace(secret), time.Now())
		if err != nil {
			return "", fmt.Errorf("generating TOTP: %w", err)
		}
		return code, nil
	}
}

// PromptSource reads the passcode interactively, the fallback when no
// TOTP secret is configured.
func PromptSource(in io.Reader, out io.Writer) OTPSource {
	return func() (string, error) {
		fmt.Fprint(out, "Enter current TOTP from authenticator app: ")
		reader := bufio.NewReader(in)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading passcode: %w", err)
		}
		code := strings.TrimSpace(line)
		if code == "" {
			return "", fmt.Errorf("empty passcode")
		}
		return code, nil
	}
}

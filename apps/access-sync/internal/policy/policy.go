// Package policy は論理状態とコンセントレータ上のプロファイル・プールの対応を保持する。
package policy

import (
	"fmt"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/config"
	"github.com/oyaguma3/access-sync/pkg/apperr"
)

// State は加入者の論理状態。
type State string

// 論理状態
const (
	StateUnknown State = "UNKNOWN"
	StateNormal  State = "NORMAL"
	StateCut     State = "CUT"
)

// Policy は施行ポリシー。生成後は変更されない。
type Policy struct {
	normalProfile string
	cutProfile    string
	cutPool       string
}

// New は新しいPolicyを生成する。
func New(normalProfile, cutProfile, cutPool string) (*Policy, error) {
	if normalProfile == "" {
		return nil, apperr.NewValidationError("normalProfile", "must not be empty", nil)
	}
	if cutProfile == "" {
		return nil, apperr.NewValidationError("cutProfile", "must not be empty", nil)
	}
	if cutPool == "" {
		return nil, apperr.NewValidationError("cutPool", "must not be empty", nil)
	}
	if normalProfile == cutProfile {
		return nil, apperr.NewValidationError("cutProfile", fmt.Sprintf("must differ from normalProfile %q", normalProfile), nil)
	}
	return &Policy{
		normalProfile: normalProfile,
		cutProfile:    cutProfile,
		cutPool:       cutPool,
	}, nil
}

// FromConfig は設定からPolicyを生成する。
func FromConfig(cfg *config.Config) (*Policy, error) {
	return New(cfg.ProfileNormal, cfg.ProfileCut, cfg.PoolCut)
}

// NormalProfile は通常状態のプロファイル名を返す。
func (p *Policy) NormalProfile() string { return p.normalProfile }

// CutProfile は停止状態のプロファイル名を返す。
func (p *Policy) CutProfile() string { return p.cutProfile }

// CutPool は停止状態のアドレスプール名を返す。
func (p *Policy) CutPool() string { return p.cutPool }

// ProfileFor は状態に対応するプロファイル名を返す。
// StateUnknownには対応するプロファイルがないため空文字列を返す。
func (p *Policy) ProfileFor(state State) string {
	switch state {
	case StateNormal:
		return p.normalProfile
	case StateCut:
		return p.cutProfile
	default:
		return ""
	}
}

// StateOf はプロファイル名から論理状態を判定する。完全一致のみ。
func (p *Policy) StateOf(profile string) State {
	switch profile {
	case p.normalProfile:
		return StateNormal
	case p.cutProfile:
		return StateCut
	default:
		return StateUnknown
	}
}

// Package locator はコンセントレータ上の加入者リソースを検索する。
// 参照のみを行い、書き込みはしない。
package locator

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"strings"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/concentrator"
	"github.com/oyaguma3/access-sync/pkg/apperr"
	"github.com/oyaguma3/access-sync/pkg/model"
)

// Locator は1つの接続に束縛された検索器。
type Locator struct {
	ex concentrator.Executor
}

// New は新しいLocatorを生成する。
func New(ex concentrator.Executor) *Locator {
	return &Locator{ex: ex}
}

// FindSecretByUsername はユーザー名でPPPシークレットを検索する。
// 存在しない場合は (nil, nil) を返す。
func (l *Locator) FindSecretByUsername(ctx context.Context, username string) (*model.AccessSecret, error) {
	rec, err := l.findOne(ctx, PathSecretPrint, FieldName, username)
	if err != nil || rec == nil {
		return nil, err
	}
	return &model.AccessSecret{
		ID:       rec.Get(FieldID),
		Username: rec.Get(FieldName),
		Profile:  rec.Get(FieldProfile),
		Service:  rec.Get(FieldService),
		Disabled: rec.Bool(FieldDisabled),
		Comment:  rec.Get(FieldComment),
	}, nil
}

// FindActiveSessionByUsername はユーザー名でアクティブセッションを検索する。
// 存在しない場合は (nil, nil) を返す。
func (l *Locator) FindActiveSessionByUsername(ctx context.Context, username string) (*model.ActiveSession, error) {
	rec, err := l.findOne(ctx, PathActivePrint, FieldName, username)
	if err != nil || rec == nil {
		return nil, err
	}
	return &model.ActiveSession{
		ID:            rec.Get(FieldID),
		Username:      rec.Get(FieldName),
		RemoteAddress: rec.Get(FieldAddress),
		CallerID:      rec.Get(FieldCallerID),
		AcctSessionID: rec.Get(FieldSessionID),
		Uptime:        rec.Get(FieldUptime),
	}, nil
}

// FindLeaseByMAC はMACアドレスでDHCPリースを検索する。
// MACアドレスは正規化してから照合する。存在しない場合は (nil, nil) を返す。
func (l *Locator) FindLeaseByMAC(ctx context.Context, mac string) (*model.DhcpLease, error) {
	normalized, err := NormalizeMAC(mac)
	if err != nil {
		return nil, err
	}

	records, err := l.ex.Execute(ctx, PathLeasePrint, concentrator.Params{
		concentrator.Query(FieldMACAddress, normalized),
	})
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		got, err := NormalizeMAC(rec.Get(FieldMACAddress))
		if err != nil || got != normalized {
			continue
		}
		return &model.DhcpLease{
			ID:            rec.Get(FieldID),
			MACAddress:    got,
			AddressPool:   rec.Get(FieldAddress),
			ActiveAddress: rec.Get(FieldActiveAddress),
			Server:        rec.Get(FieldServer),
		}, nil
	}
	return nil, nil
}

// ProfileExists はPPPプロファイルが存在するかを返す。
func (l *Locator) ProfileExists(ctx context.Context, name string) (bool, error) {
	rec, err := l.findOne(ctx, PathProfilePrint, FieldName, name)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// PoolExists はIPアドレスプールが存在するかを返す。
func (l *Locator) PoolExists(ctx context.Context, name string) (bool, error) {
	rec, err := l.findOne(ctx, PathPoolPrint, FieldName, name)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// findOne はkeyがvalueと完全一致する最初のレコードを返す。
func (l *Locator) findOne(ctx context.Context, path, key, value string) (concentrator.Record, error) {
	records, err := l.ex.Execute(ctx, path, concentrator.Params{
		concentrator.Query(key, value),
	})
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.Get(key) == value {
			return rec, nil
		}
	}
	return nil, nil
}

// NormalizeMAC はMACアドレスを "AA:BB:CC:DD:EE:FF" 形式に正規化する。
// コロン・ハイフン・ドット区切りと区切りなし12桁を受け付ける。
func NormalizeMAC(mac string) (string, error) {
	s := strings.TrimSpace(mac)

	var hw net.HardwareAddr
	if len(s) == 12 {
		b, err := hex.DecodeString(s)
		if err != nil {
			return "", fmt.Errorf("%w: %q", apperr.ErrInvalidMACAddress, mac)
		}
		hw = net.HardwareAddr(b)
	} else {
		parsed, err := net.ParseMAC(s)
		if err != nil {
			return "", fmt.Errorf("%w: %q", apperr.ErrInvalidMACAddress, mac)
		}
		hw = parsed
	}

	if len(hw) != 6 {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidMACAddress, mac)
	}
	return strings.ToUpper(hw.String()), nil
}

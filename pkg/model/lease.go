package model

// DhcpLease はハードウェアアドレスに紐づくDHCPリースを表す。
// RouterOSパス: /ip/dhcp-server/lease
// addressフィールドにはIPアドレスの代わりにプール名を設定できるため、
// AddressPoolにはその値をそのまま保持する。
type DhcpLease struct {
	ID            string `json:"id" yaml:"id"`                   // リースID（.id）
	MACAddress    string `json:"mac_address" yaml:"mac_address"` // 正規化済みMAC（AA:BB:CC:DD:EE:FF）
	AddressPool   string `json:"address_pool" yaml:"address_pool"`
	ActiveAddress string `json:"active_address,omitempty" yaml:"active_address,omitempty"`
	Server        string `json:"server,omitempty" yaml:"server,omitempty"`
}

// InPool はリースが指定プールに割り当て済みかを返す。
func (l *DhcpLease) InPool(pool string) bool {
	return l.AddressPool == pool
}

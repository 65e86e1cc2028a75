// Package domain はソーシャルログインのドメイン型とエラーを定義します。
package domain

import "flowchart_backend/internal/shared/apperr"

// Profile は外部IDプロバイダーから取得したユーザー情報です。
type Profile struct {
	Email      string
	Name       string
	GivenName  string
	FamilyName string
	Picture    string
}

// DisplayName returns Name, or the given and family names joined when Name is empty.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	switch {
	case p.GivenName != "" && p.FamilyName != "":
		return p.GivenName + " " + p.FamilyName
	case p.GivenName != "":
		return p.GivenName
	default:
		return p.FamilyName
	}
}

var (
	// ErrMissingCode は認可コードが無い場合に返されます。
	ErrMissingCode = apperr.New(apperr.KindClient, "authorization code is required")

	// ErrStateMismatch は state パラメータが Cookie と一致しない場合に返されます。
	ErrStateMismatch = apperr.New(apperr.KindClient, "invalid oauth state")

	// ErrMissingEmail はプロバイダーがメールアドレスを返さなかった場合に返されます。
	ErrMissingEmail = apperr.New(apperr.KindUpstream, "identity provider returned no email")
)

package usecases

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cast"

	appSetting "github.com/orris-inc/usdtpay/internal/application/setting"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/domain/setting"
	"github.com/orris-inc/usdtpay/internal/shared/biztime"
	"github.com/orris-inc/usdtpay/internal/shared/errors"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
	"github.com/orris-inc/usdtpay/internal/shared/utils"
)

// SettingView is one row of the admin settings page.
type SettingView struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Source      string `json:"source"`
	Secret      bool   `json:"secret"`
	Description string `json:"description"`
}

type ManageSettingsUseCase struct {
	repo     setting.Repository
	resolver *appSetting.Resolver
	logger   logger.Interface
}

func NewManageSettingsUseCase(repo setting.Repository, resolver *appSetting.Resolver, logger logger.Interface) *ManageSettingsUseCase {
	return &ManageSettingsUseCase{
		repo:     repo,
		resolver: resolver,
		logger:   logger,
	}
}

// List returns every known key with its effective value. Secrets are masked.
func (uc *ManageSettingsUseCase) List(ctx context.Context) []SettingView {
	defs := setting.Definitions()
	views := make([]SettingView, 0, len(defs))
	for _, d := range defs {
		value, source := uc.resolver.Resolve(ctx, d.Key)
		if d.Secret {
			value = utils.MaskSecret(value)
		}
		views = append(views, SettingView{
			Key:         string(d.Key),
			Value:       value,
			Source:      string(source),
			Secret:      d.Secret,
			Description: d.Description,
		})
	}
	return views
}

// Update applies overrides. An empty value removes the override so the
// environment or default applies again. Either every value is valid or none is written.
func (uc *ManageSettingsUseCase) Update(ctx context.Context, values map[string]string) ([]SettingView, error) {
	if len(values) == 0 {
		return nil, errors.NewValidationError("no settings provided")
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := setting.Lookup(k); !ok {
			return nil, errors.NewValidationError("unknown setting key", k)
		}
		if err := validateValue(setting.Key(k), strings.TrimSpace(values[k])); err != nil {
			return nil, errors.NewValidationError(err.Error(), k)
		}
	}

	now := biztime.NowUTC()
	for _, k := range keys {
		value := strings.TrimSpace(values[k])
		if value == "" {
			if err := uc.repo.Delete(ctx, setting.Key(k)); err != nil {
				return nil, fmt.Errorf("failed to delete setting %s: %w", k, err)
			}
			uc.logger.Infow("setting override removed", "key", k)
			continue
		}
		if err := uc.repo.Upsert(ctx, &setting.Setting{Key: setting.Key(k), Value: value, UpdatedAt: now}); err != nil {
			return nil, fmt.Errorf("failed to save setting %s: %w", k, err)
		}
		uc.logger.Infow("setting override saved", "key", k)
	}

	return uc.List(ctx), nil
}

func validateValue(key setting.Key, value string) error {
	if value == "" {
		return nil
	}
	switch key {
	case setting.KeyTronAddresses, setting.KeyBscAddresses:
		chain := vo.ChainTRC20
		if key == setting.KeyBscAddresses {
			chain = vo.ChainBSC
		}
		addrs := appSetting.SplitList(value)
		if len(addrs) == 0 {
			return fmt.Errorf("address list is empty")
		}
		for _, a := range addrs {
			if err := chain.ValidateAddress(a); err != nil {
				return err
			}
		}
	case setting.KeyPollIntervalMs:
		ms, err := cast.ToInt64E(value)
		if err != nil || ms <= 0 {
			return fmt.Errorf("poll interval must be a positive integer of milliseconds")
		}
	case setting.KeyNotifyURL:
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("notify url must be an absolute http(s) url")
		}
	}
	return nil
}

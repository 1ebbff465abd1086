package admin

import (
	"context"
	"io"

	"github.com/orris-inc/usdtpay/internal/application/payment/dto"
	"github.com/orris-inc/usdtpay/internal/application/payment/usecases"
	settingUsecases "github.com/orris-inc/usdtpay/internal/application/setting/usecases"
)

type adminOrdersUseCase interface {
	List(ctx context.Context, q usecases.ListOrdersQuery) ([]*dto.OrderDTO, int64, error)
	Get(ctx context.Context, id uint) (*dto.OrderDTO, error)
	Export(ctx context.Context, q usecases.ListOrdersQuery, w io.Writer) error
	MarkPaid(ctx context.Context, id uint, cmd usecases.MarkPaidCommand) (*dto.OrderDTO, error)
	Expire(ctx context.Context, id uint) (*dto.OrderDTO, error)
	Fail(ctx context.Context, id uint, note string) (*dto.OrderDTO, error)
}

type manageSettingsUseCase interface {
	List(ctx context.Context) []settingUsecases.SettingView
	Update(ctx context.Context, values map[string]string) ([]settingUsecases.SettingView, error)
}

package app

import (
	"context"

	"github.com/candelhealth/srbridge/internal/service/srbridge/app/commands"
	"github.com/candelhealth/srbridge/internal/service/srbridge/app/queries"
)

type CommandBus interface {
	ConvertReport(ctx context.Context, cmd commands.ConvertReportCommand) (commands.ConvertReportResult, error)
}

type QueryBus interface {
	GetCanonical(ctx context.Context, q queries.GetCanonicalQuery) (queries.GetCanonicalResult, error)
}

type commandBus struct {
	convertReport commands.ConvertReportHandler
}

type queryBus struct {
	getCanonical queries.GetCanonicalQueryHandler
}

func NewCommandBus(
	convert commands.ConvertReportHandler,
) CommandBus {
	return &commandBus{
		convertReport: convert,
	}
}

func NewQueryBus(
	get queries.GetCanonicalQueryHandler,
) QueryBus {
	return &queryBus{
		getCanonical: get,
	}
}

func (b *commandBus) ConvertReport(ctx context.Context, cmd commands.ConvertReportCommand) (commands.ConvertReportResult, error) {
	return b.convertReport.Handle(ctx, cmd)
}

func (b *queryBus) GetCanonical(ctx context.Context, q queries.GetCanonicalQuery) (queries.GetCanonicalResult, error) {
	return b.getCanonical.Handle(ctx, q)
}

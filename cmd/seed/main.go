package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stitchhire/candidate-directory/backend/internal/config"
	"github.com/stitchhire/candidate-directory/backend/internal/credential"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
	"github.com/stitchhire/candidate-directory/backend/internal/repository"
	"github.com/stitchhire/candidate-directory/backend/internal/seed"
	"github.com/stitchhire/candidate-directory/backend/internal/utils"
)

func main() {
	var tenantName string
	var n int
	var from int
	var csvPath string

	flag.StringVar(&tenantName, "tenant", "", "要写入的 tenant (sewing 或 upholstery)")
	flag.IntVar(&n, "n", 5, "要插入的候选人数量")
	flag.IntVar(&from, "from", 1, "候选人编号的起始值")
	flag.StringVar(&csvPath, "csv", "", "从 CSV 文件导入候选人，表头为 tenant 的原始列名")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	tenant, err := domain.ParseTenantID(tenantName)
	if err != nil {
		logger.Error("请指定合法的 tenant", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if n <= 0 || from <= 0 {
		logger.Error("请输入合法的数量和起始编号")
		os.Exit(1)
	}

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := repository.OpenPool(cfg, repository.DSNFor(cfg, tenant))
	if err != nil {
		logger.Error("无法连接到数据库", "tenant", tenant, "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, repository.SchemaFor(tenant), dbpool)

	// 指定 CSV 时只导入候选人，不生成账户
	if csvPath != "" {
		file, err := os.Open(csvPath)
		if err != nil {
			logger.Error("打开文件失败", "error", err)
			os.Exit(1)
		}
		defer file.Close()

		cnt, err := seed.ImportCandidatesCSV(context.Background(), file, tenant, repo)
		if err != nil {
			logger.Error("导入候选人失败", "imported", cnt, "error", err)
			os.Exit(1)
		}
		logger.Info("导入候选人成功", "tenant", tenant, slog.Int("count", cnt))
		return
	}

	// 所有种子账户使用同一个密码，只需要哈希一次
	hasher, err := credential.NewPasswordHasher(cfg.Password.BcryptCost)
	if err != nil {
		logger.Error("无法创建密码哈希器", slog.String("error", err.Error()))
		os.Exit(1)
	}
	passwordHash, err := hasher.Hash(cfg.Seed.User.Password)
	if err != nil {
		logger.Error("无法生成密码哈希", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	cnt := 0
	for i := from; i < from+n; i++ {
		candidateID := utils.GenerateCandidateID(tenant, i)

		if err := repo.InsertCandidate(ctx, utils.GenerateRandomCandidate(tenant, candidateID)); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				logger.Warn("候选人编号已存在，跳过", "candidate_id", candidateID)
				continue
			}
			logger.Error("无法插入候选人", "candidate_id", candidateID, "error", err)
			continue
		}

		if err := repo.SetPostcode(ctx, candidateID, utils.GenerateRandomPostcode()); err != nil {
			logger.Error("无法写入邮编", "candidate_id", candidateID, "error", err)
		}

		user := utils.GenerateRandomUser(utils.GenerateRandomFullName(), candidateID, passwordHash, cfg.Seed.EmailDomain)
		if _, err := repo.CreateUser(ctx, user); err != nil {
			logger.Error("无法插入用户", "candidate_id", candidateID, "error", err)
			continue
		}

		cnt++
	}

	logger.Info("插入候选人成功", "tenant", tenant, slog.Int("count", cnt))
}

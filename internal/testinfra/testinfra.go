package testinfra

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var Pool *pgxpool.Pool

func init() {
	Pool = SetupDB()
}

func SetupDB() *pgxpool.Pool {

	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:17.2-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections"),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	if err != nil {
		log.Panicf("start postgres: %v", err)
	}

	pgHostPort, err := pgC.Endpoint(ctx, "")
	if err != nil {
		log.Panicf("postgres endpoint: %v", err)
	}
	pgDSN := fmt.Sprintf("postgres://postgres:password@%s/testdb?sslmode=disable", pgHostPort)

	pool, err := pgxpool.New(ctx, pgDSN)
	if err != nil {
		log.Panicf("pgxpool connect: %v", err)
	}

	ok := false
	for i := 0; i < 20; i++ {
		slog.Info("ping db", "try", i)
		ctxPing, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		err = pool.Ping(ctxPing)
		cancel()
		if err == nil {
			ok = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ok {
		log.Panic("db did not respond after 20 attempts")
	}

	_, err = pool.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS crm;
		CREATE TABLE IF NOT EXISTS crm.site_orders (
			id BIGSERIAL PRIMARY KEY,
			customer_id UUID NOT NULL,
			customer_name TEXT NOT NULL,
			customer_email TEXT NOT NULL,
			status VARCHAR(30) NOT NULL,
			base_price NUMERIC(10,2) NOT NULL DEFAULT 0,
			total_price NUMERIC(10,2) NOT NULL DEFAULT 0,
			delivery_days INT NOT NULL DEFAULT 0,
			revisions_left INT NOT NULL DEFAULT 0,
			site_url TEXT,
			repository_url TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			paid_at TIMESTAMPTZ,
			onboarded_at TIMESTAMPTZ,
			delivered_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS crm.onboardings (
			order_id BIGINT PRIMARY KEY REFERENCES crm.site_orders(id),
			business_name TEXT NOT NULL,
			niche TEXT NOT NULL,
			location TEXT NOT NULL,
			services TEXT NOT NULL,
			tone TEXT NOT NULL,
			primary_cta TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS crm.deliverables (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES crm.site_orders(id),
			"type" VARCHAR(20) NOT NULL,
			status VARCHAR(20) NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			retired_at TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS crm.generation_logs (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES crm.site_orders(id),
			step VARCHAR(40) NOT NULL,
			status VARCHAR(10) NOT NULL,
			message TEXT NOT NULL,
			details JSONB,
			archived BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS crm.mail_templates (
			"type" VARCHAR(30) PRIMARY KEY,
			content TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS crm.mails (
			id BIGSERIAL PRIMARY KEY,
			"type" VARCHAR(30) NOT NULL,
			recipients TEXT NOT NULL,
			subject TEXT NOT NULL,
			content TEXT NOT NULL,
			sent_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		log.Panicf("create tables: %v", err)
	}

	return pool
}

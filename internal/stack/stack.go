// Package stack defines the vocabulary of a generated project: the frontend,
// backend, database, ORM and tooling identifiers a configuration is built
// from, plus the capability classification the engine consults instead of
// ad-hoc frontend lists.
package stack

import (
	"fmt"
	"strings"

	"github.com/tstack-labs/tstack/internal/orderedset"
)

// None is the neutral value every single-choice field defaults to.
const None = "none"

// Frontend identifies one client application target.
type Frontend string

const (
	FrontendTanStackRouter   Frontend = "tanstack-router"
	FrontendReactRouter      Frontend = "react-router"
	FrontendTanStackStart    Frontend = "tanstack-start"
	FrontendNext             Frontend = "next"
	FrontendNuxt             Frontend = "nuxt"
	FrontendSvelte           Frontend = "svelte"
	FrontendSolid            Frontend = "solid"
	FrontendNativeNativewind Frontend = "native-nativewind"
	FrontendNativeUnistyles  Frontend = "native-unistyles"
)

// Frontends lists every known frontend in display order.
var Frontends = []Frontend{
	FrontendTanStackRouter,
	FrontendReactRouter,
	FrontendTanStackStart,
	FrontendNext,
	FrontendNuxt,
	FrontendSvelte,
	FrontendSolid,
	FrontendNativeNativewind,
	FrontendNativeUnistyles,
}

type Backend string

const (
	BackendHono    Backend = "hono"
	BackendExpress Backend = "express"
	BackendFastify Backend = "fastify"
	BackendElysia  Backend = "elysia"
	BackendNext    Backend = "next"
	BackendConvex  Backend = "convex"
	BackendNone    Backend = None
)

var Backends = []Backend{BackendHono, BackendExpress, BackendFastify, BackendElysia, BackendNext, BackendConvex, BackendNone}

type Database string

const (
	DatabaseSQLite   Database = "sqlite"
	DatabasePostgres Database = "postgres"
	DatabaseMySQL    Database = "mysql"
	DatabaseMongoDB  Database = "mongodb"
	DatabaseNone     Database = None
)

var Databases = []Database{DatabaseSQLite, DatabasePostgres, DatabaseMySQL, DatabaseMongoDB, DatabaseNone}

type ORM string

const (
	ORMDrizzle  ORM = "drizzle"
	ORMPrisma   ORM = "prisma"
	ORMMongoose ORM = "mongoose"
	ORMNone     ORM = None
)

var ORMs = []ORM{ORMDrizzle, ORMPrisma, ORMMongoose, ORMNone}

type Runtime string

const (
	RuntimeBun     Runtime = "bun"
	RuntimeNode    Runtime = "node"
	RuntimeWorkers Runtime = "workers"
	RuntimeNone    Runtime = None
)

var Runtimes = []Runtime{RuntimeBun, RuntimeNode, RuntimeWorkers, RuntimeNone}

type PackageManager string

const (
	PackageManagerNPM  PackageManager = "npm"
	PackageManagerPNPM PackageManager = "pnpm"
	PackageManagerBun  PackageManager = "bun"
)

var PackageManagers = []PackageManager{PackageManagerNPM, PackageManagerPNPM, PackageManagerBun}

type DBSetup string

const (
	DBSetupTurso          DBSetup = "turso"
	DBSetupNeon           DBSetup = "neon"
	DBSetupPrismaPostgres DBSetup = "prisma-postgres"
	DBSetupMongoDBAtlas   DBSetup = "mongodb-atlas"
	DBSetupSupabase       DBSetup = "supabase"
	DBSetupD1             DBSetup = "d1"
	DBSetupDocker         DBSetup = "docker"
	DBSetupNone           DBSetup = None
)

var DBSetups = []DBSetup{DBSetupTurso, DBSetupNeon, DBSetupPrismaPostgres, DBSetupMongoDBAtlas, DBSetupSupabase, DBSetupD1, DBSetupDocker, DBSetupNone}

type API string

const (
	APITRPC API = "trpc"
	APIORPC API = "orpc"
	APINone API = None
)

var APIs = []API{APITRPC, APIORPC, APINone}

type WebDeploy string

const (
	WebDeployWorkers WebDeploy = "workers"
	WebDeployNone    WebDeploy = None
)

var WebDeploys = []WebDeploy{WebDeployWorkers, WebDeployNone}

// FrontendSet is the ordered frontend stack of a project.
type FrontendSet = orderedset.Set[Frontend]

// NewFrontendSet builds a stack from vals, dropping the "none" sentinel.
func NewFrontendSet(vals ...Frontend) *FrontendSet {
	s := orderedset.New[Frontend]()
	for _, v := range vals {
		if v == None || v == "" {
			continue
		}
		s.Add(v)
	}
	return s
}

// ParseFrontends validates raw identifiers and returns them as a stack.
func ParseFrontends(raw []string) (*FrontendSet, error) {
	out := NewFrontendSet()
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == None || r == "" {
			continue
		}
		f := Frontend(r)
		if !oneOf(f, Frontends) {
			return nil, fmt.Errorf("unknown frontend %q (expected one of %s)", r, joinIDs(Frontends))
		}
		out.Add(f)
	}
	return out, nil
}

// Parse validates value against allowed and returns it typed.
// An empty value is returned unchanged so callers can treat it as unset.
func Parse[T ~string](field, value string, allowed []T) (T, error) {
	if value == "" {
		return "", nil
	}
	v := T(value)
	if !oneOf(v, allowed) {
		return "", fmt.Errorf("invalid %s %q (expected one of %s)", field, value, joinIDs(allowed))
	}
	return v, nil
}

func oneOf[T comparable](v T, allowed []T) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

func joinIDs[T ~string](ids []T) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

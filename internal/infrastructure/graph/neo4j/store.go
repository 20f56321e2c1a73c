package neo4j

import (
	"context"
	"fmt"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/resilience"
)

const (
	nodePropertiesQuery = `CALL db.schema.nodeTypeProperties()
YIELD nodeLabels, propertyName, propertyTypes
RETURN nodeLabels, propertyName, propertyTypes`

	relPropertiesQuery = `CALL db.schema.relTypeProperties()
YIELD relType, propertyName, propertyTypes
RETURN relType, propertyName, propertyTypes`

	relationshipPatternsQuery = `MATCH (a)-[r]->(b)
WITH a, r, b LIMIT 10000
RETURN DISTINCT labels(a)[0] AS start, type(r) AS type, labels(b)[0] AS end`
)

// Store is the graph store backed by a Neo4j database. Queries run in read
// transactions; the schema is introspected once and cached.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	executor *resilience.Executor

	schemaMu sync.Mutex
	schema   *domain.GraphSchema
}

type Options struct {
	Database           string
	ResilienceExecutor *resilience.Executor
}

func New(ctx context.Context, uri, username, password string, options Options) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Store{
		driver:   driver,
		database: options.Database,
		executor: options.ResilienceExecutor,
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

func (s *Store) Schema(ctx context.Context) (domain.GraphSchema, error) {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if s.schema != nil {
		return *s.schema, nil
	}
	schema, err := s.introspect(ctx)
	if err != nil {
		return domain.GraphSchema{}, err
	}
	s.schema = &schema
	return schema, nil
}

// RefreshSchema drops the cached schema and introspects the database again.
func (s *Store) RefreshSchema(ctx context.Context) (domain.GraphSchema, error) {
	s.schemaMu.Lock()
	s.schema = nil
	s.schemaMu.Unlock()
	return s.Schema(ctx)
}

func (s *Store) introspect(ctx context.Context) (domain.GraphSchema, error) {
	_, nodeRecords, err := s.read(ctx, "schema_nodes", nodePropertiesQuery, nil)
	if err != nil {
		return domain.GraphSchema{}, err
	}
	_, relRecords, err := s.read(ctx, "schema_relationships", relPropertiesQuery, nil)
	if err != nil {
		return domain.GraphSchema{}, err
	}
	_, patternRecords, err := s.read(ctx, "schema_patterns", relationshipPatternsQuery, nil)
	if err != nil {
		return domain.GraphSchema{}, err
	}
	return buildSchema(nodeRecords, relRecords, patternRecords), nil
}

func (s *Store) Validate(_ context.Context, schema domain.GraphSchema, query string) error {
	return ValidateQuery(schema, query)
}

func (s *Store) Execute(ctx context.Context, query string) (domain.GraphResult, error) {
	keys, records, err := s.read(ctx, "execute", query, nil)
	if err != nil {
		return domain.GraphResult{}, err
	}
	return domain.GraphResult{
		Query:   query,
		Columns: keys,
		Rows:    recordsToRows(keys, records),
	}, nil
}

type readResult struct {
	keys    []string
	records []*neo4j.Record
}

func (s *Store) read(ctx context.Context, operation, query string, params map[string]any) ([]string, []*neo4j.Record, error) {
	var res readResult
	do := func(ctx context.Context) error {
		session := s.driver.NewSession(ctx, neo4j.SessionConfig{
			AccessMode:   neo4j.AccessModeRead,
			DatabaseName: s.database,
		})
		defer session.Close(ctx)

		out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, query, params)
			if err != nil {
				return nil, err
			}
			keys, err := result.Keys()
			if err != nil {
				return nil, err
			}
			records, err := result.Collect(ctx)
			if err != nil {
				return nil, err
			}
			return readResult{keys: keys, records: records}, nil
		})
		if err != nil {
			return err
		}
		res = out.(readResult)
		return nil
	}

	var err error
	if s.executor != nil {
		err = s.executor.Execute(ctx, "neo4j."+operation, do, classifyNeo4jError)
	} else {
		err = do(ctx)
	}
	if err != nil {
		return nil, nil, wrapTemporaryIfNeeded("neo4j "+operation, fmt.Errorf("neo4j %s: %w", operation, err))
	}
	return res.keys, res.records, nil
}

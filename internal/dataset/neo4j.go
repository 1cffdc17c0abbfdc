package dataset

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/psidex/bmmap/internal/graph"
)

const (
	usersCypher = `MATCH (u:User)
RETURN u.userId AS userId, u.userName AS userName, coalesce(u.title, '') AS title
ORDER BY userId`
	edgesCypher = `MATCH (a:User)-[:CONTACT]->(b:User)
RETURN a.userId AS a, b.userId AS b
ORDER BY a, b`
)

// Neo4jOptions configures LoadNeo4j.
type Neo4jOptions struct {
	URI      string
	Database string
	Username string
	Password string
}

// record is one row of a cypher result keyed by column.
type record map[string]any

// cypherReader runs a read-only query to completion.
type cypherReader interface {
	Read(ctx context.Context, cypher string) ([]record, error)
}

// LoadNeo4j reads (:User) nodes and [:CONTACT] relationships.
func LoadNeo4j(ctx context.Context, opts Neo4jOptions) (*File, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("neo4j: URI is required")
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	return loadCypher(ctx, neo4jReader{driver: driver, database: opts.Database})
}

func loadCypher(ctx context.Context, r cypherReader) (*File, error) {
	userRows, err := r.Read(ctx, usersCypher)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	edgeRows, err := r.Read(ctx, edgesCypher)
	if err != nil {
		return nil, fmt.Errorf("read edges: %w", err)
	}

	f := &File{
		Users: make([]graph.User, 0, len(userRows)),
		Edges: make([]graph.Edge, 0, len(edgeRows)),
	}
	for _, row := range userRows {
		id, err := intField(row, "userId")
		if err != nil {
			return nil, err
		}
		name, _ := row["userName"].(string)
		title, _ := row["title"].(string)
		f.Users = append(f.Users, graph.User{ID: id, Name: name, Title: title})
	}
	for _, row := range edgeRows {
		a, err := intField(row, "a")
		if err != nil {
			return nil, err
		}
		b, err := intField(row, "b")
		if err != nil {
			return nil, err
		}
		f.Edges = append(f.Edges, graph.Edge{A: a, B: b})
	}

	return f, nil
}

func intField(row record, key string) (int, error) {
	switch v := row[key].(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("column %s: unexpected value %#v", key, row[key])
	}
}

type neo4jReader struct {
	driver   neo4j.DriverWithContext
	database string
}

func (n neo4jReader) Read(ctx context.Context, cypher string) ([]record, error) {
	session := n.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: n.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, nil)
	if err != nil {
		return nil, err
	}

	var rows []record
	for res.Next(ctx) {
		rec := res.Record()
		row := make(record, len(rec.Keys))
		for _, key := range rec.Keys {
			row[key], _ = rec.Get(key)
		}
		rows = append(rows, row)
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

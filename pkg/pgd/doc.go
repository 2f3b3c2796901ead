// Package pgd is a client for the PGD (Programa de Gestão e Desempenho) API.
//
// The client authenticates with a username and password, caches the bearer
// token it receives and, when the server reports the token as invalid, fetches
// a fresh one and repeats the call exactly once.
//
//	client, err := pgd.New(pgd.LoadConfig(), pgd.WithLoggingEnabled())
//	if err != nil {
//		log.Fatal(err)
//	}
//	user, err := client.FetchUser(ctx, "someone@example.gov.br")
package pgd

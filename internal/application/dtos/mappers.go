package dtos

import "github.com/dkrylov/coinledger/internal/domain/entities"

// MapTransactionToDTO converts a transaction (with any attached entries).
func MapTransactionToDTO(tx *entities.Transaction) *TransactionDTO {
	dto := &TransactionDTO{
		ID:                  tx.ID().String(),
		IdempotencyKey:      tx.IdempotencyKey(),
		Type:                string(tx.Type()),
		Status:              string(tx.Status()),
		SourceWalletID:      tx.SourceWalletID().String(),
		DestinationWalletID: tx.DestinationWalletID().String(),
		Amount:              tx.Amount().String(),
		ReferenceID:         tx.ReferenceID(),
		Metadata:            tx.Metadata(),
		ErrorMessage:        tx.ErrorMessage(),
		CreatedAt:           tx.CreatedAt(),
		UpdatedAt:           tx.UpdatedAt(),
		CompletedAt:         tx.CompletedAt(),
	}
	for _, entry := range tx.Entries() {
		dto.Entries = append(dto.Entries, MapLedgerEntryToDTO(entry))
	}
	return dto
}

// MapLedgerEntryToDTO converts one ledger entry.
func MapLedgerEntryToDTO(entry *entities.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:            entry.ID().String(),
		TransactionID: entry.TransactionID().String(),
		WalletID:      entry.WalletID().String(),
		EntryType:     string(entry.Type()),
		Amount:        entry.Amount().String(),
		BalanceAfter:  entry.BalanceAfter().String(),
		CreatedAt:     entry.CreatedAt(),
	}
}

// MapTransactionListToDTO converts a listing page.
func MapTransactionListToDTO(txs []*entities.Transaction, offset, limit int) *TransactionListDTO {
	list := &TransactionListDTO{
		Items:  make([]TransactionDTO, 0, len(txs)),
		Offset: offset,
		Limit:  limit,
	}
	for _, tx := range txs {
		list.Items = append(list.Items, *MapTransactionToDTO(tx))
	}
	return list
}

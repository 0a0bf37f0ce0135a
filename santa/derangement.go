package santa

import (
	"errors"
	"math/rand"
)

var ErrTooFewParticipants = errors.New("derangement requires at least 2 participants")

// IntN возвращает равномерно случайное число из [0, n). Выделено в тип,
// чтобы тесты могли подставить детерминированный источник.
type IntN func(n int) int

// DefaultIntN использует глобальный генератор math/rand.
func DefaultIntN(n int) int {
	return rand.Intn(n)
}

// Derangement строит случайное назначение даритель -> получатель для ids,
// в котором никто не получает сам себя.
//
// Используется тасование Саттоло: проход i от len-1 до 1 со свапом с
// j < i даёт равномерно случайный ОДИН цикл по всем элементам. Получатель
// каждого — следующий элемент цикла; при длине цикла >= 2 неподвижных
// точек не бывает, поэтому не нужны ни проверка на самоназначение, ни
// повторные попытки, в отличие от наивного полного тасования.
func Derangement(ids []int, intn IntN) (map[int]int, error) {
	if len(ids) < 2 {
		return nil, ErrTooFewParticipants
	}
	if intn == nil {
		intn = DefaultIntN
	}

	cycle := make([]int, len(ids))
	copy(cycle, ids)
	for i := len(cycle) - 1; i > 0; i-- {
		j := intn(i) // строго меньше i — этим Саттоло отличается от Фишера-Йетса
		cycle[i], cycle[j] = cycle[j], cycle[i]
	}

	assignment := make(map[int]int, len(cycle))
	for i, giver := range cycle {
		assignment[giver] = cycle[(i+1)%len(cycle)]
	}
	return assignment, nil
}

// CycleCompletion дополняет частичное назначение recipientOf до полного:
// каждый даритель из waiting получает получателя, которого ещё никто не
// выбрал, без самоназначений и без двойных получателей.
//
// Существующие назначения образуют набор путей (у каждого узла не больше
// одного исходящего и одного входящего ребра). Хвост каждого пути — даритель
// без получателя, голова — никем не выбранный участник. Тасование Саттоло
// по хвостам даёт один случайный цикл, и хвост каждого пути получает голову
// пути следующего хвоста. Ни один путь не замыкается сам на себя, поэтому
// изолированный участник (одновременно хвост и голова) не достаётся себе.
// Без частичных назначений функция вырождается в Derangement над waiting.
func CycleCompletion(waiting []int, recipientOf map[int]int, intn IntN) (map[int]int, error) {
	if len(waiting) < 2 {
		return nil, ErrTooFewParticipants
	}
	if intn == nil {
		intn = DefaultIntN
	}

	// Входящие рёбра: кто выбрал данного участника.
	giverOf := make(map[int]int, len(recipientOf))
	for giver, recipient := range recipientOf {
		giverOf[recipient] = giver
	}

	// Голова пути, хвостом которого является w: идём против рёбер, пока
	// не встретим участника, которого никто не выбирал. Циклов на этом
	// пути не бывает — в цикле нет узлов без получателя.
	headOf := func(w int) int {
		cur := w
		for {
			g, ok := giverOf[cur]
			if !ok {
				return cur
			}
			cur = g
		}
	}

	cycle := make([]int, len(waiting))
	copy(cycle, waiting)
	for i := len(cycle) - 1; i > 0; i-- {
		j := intn(i)
		cycle[i], cycle[j] = cycle[j], cycle[i]
	}

	assignment := make(map[int]int, len(cycle))
	for i, giver := range cycle {
		assignment[giver] = headOf(cycle[(i+1)%len(cycle)])
	}
	return assignment, nil
}

// Pick выбирает равномерно случайный элемент пула. Пустой пул — ошибка
// вызывающей стороны, здесь он не допускается.
func Pick(pool []int, intn IntN) int {
	if intn == nil {
		intn = DefaultIntN
	}
	return pool[intn(len(pool))]
}
